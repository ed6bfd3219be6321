package repository

import (
	"context"
	"time"

	"github.com/Wasion-it/fork-controle-material/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementFilter defines filters for listing ledger entries.
// Zero time values mean an open-ended range.
type MovementFilter struct {
	MaterialID *uuid.UUID
	Direction  string
	From       time.Time
	To         time.Time
	Limit      int
}

// MovementRepository is the append-only ledger. There are deliberately no
// update or delete methods: once a row exists it is immutable.
type MovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.Movement) error
	ListForMaterial(ctx context.Context, materialID uuid.UUID, limit int) ([]model.Movement, error)
	List(ctx context.Context, filter MovementFilter) ([]model.Movement, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepo{db: db}
}

func (r *movementRepo) CreateTx(tx *gorm.DB, m *model.Movement) error {
	return tx.Create(m).Error
}

func (r *movementRepo) ListForMaterial(ctx context.Context, materialID uuid.UUID, limit int) ([]model.Movement, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	var movements []model.Movement
	err := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("created_at DESC").
		Limit(limit).
		Find(&movements).Error
	return movements, err
}

func (r *movementRepo) List(ctx context.Context, filter MovementFilter) ([]model.Movement, error) {
	q := r.db.WithContext(ctx).Model(&model.Movement{}).Preload("Material")

	if filter.MaterialID != nil {
		q = q.Where("material_id = ?", *filter.MaterialID)
	}
	if filter.Direction != "" {
		q = q.Where("direction = ?", filter.Direction)
	}
	if !filter.From.IsZero() {
		q = q.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("created_at <= ?", filter.To)
	}

	// Limit 0 means an uncapped range report; listings always pass a cap.
	if filter.Limit > 0 {
		if filter.Limit > 500 {
			filter.Limit = 500
		}
		q = q.Limit(filter.Limit)
	}

	var movements []model.Movement
	err := q.Order("created_at DESC").Find(&movements).Error
	return movements, err
}

func (r *movementRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Movement{}).
		Where("created_at >= ?", since).Count(&n).Error
	return n, err
}
