package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Wasion-it/fork-controle-material/internal/dto"
	"github.com/Wasion-it/fork-controle-material/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStaleQuantity is returned by UpdateQuantityCAS when the conditioned
// update matched no row: either the material vanished or a concurrent
// movement changed the quantity after it was read. The ledger engine
// re-reads and retries.
var ErrStaleQuantity = errors.New("stale quantity")

// MaterialRepository defines the data access contract for materials.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory stubs.
type MaterialRepository interface {
	CreateTx(tx *gorm.DB, m *model.Material) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Material, error)
	List(ctx context.Context, filter dto.MaterialFilter) ([]model.Material, int64, error)
	// Update persists metadata columns only. Quantity is never written here;
	// it changes exclusively through UpdateQuantityCAS.
	Update(ctx context.Context, m *model.Material) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// UpdateQuantityCAS writes newQty only if the row still holds expectedQty
	// (compare-and-swap). Must run inside the same transaction as the matching
	// ledger append. Returns ErrStaleQuantity on a lost race.
	UpdateQuantityCAS(tx *gorm.DB, id uuid.UUID, expectedQty, newQty int) error

	// Reporting reads — snapshot semantics, never serialized against writers.
	CountActive(ctx context.Context) (int64, error)
	CountActiveInStock(ctx context.Context) (int64, error)
	CountActiveLowStock(ctx context.Context) (int64, error)
	CountActiveByCategory(ctx context.Context) ([]dto.CategoryCount, error)

	// ListActiveLowStock feeds the periodic alert sweep.
	ListActiveLowStock(ctx context.Context) ([]model.Material, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type materialRepo struct{ db *gorm.DB }

func NewMaterialRepository(db *gorm.DB) MaterialRepository { return &materialRepo{db: db} }

func (r *materialRepo) CreateTx(tx *gorm.DB, m *model.Material) error {
	return tx.Create(m).Error
}

func (r *materialRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	var m model.Material
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	return &m, err
}

func (r *materialRepo) List(ctx context.Context, filter dto.MaterialFilter) ([]model.Material, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Material{})

	// Active filter: "false" = inactive, "all" = everything, default = active
	switch filter.Active {
	case "false":
		q = q.Where("active = false")
	case "all":
		// no filter
	default:
		q = q.Where("active = true")
	}

	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.LowStock {
		// Field-to-field comparison evaluated by the store, not a cached flag.
		q = q.Where("quantity <= min_quantity")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	var materials []model.Material
	err := q.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&materials).Error
	return materials, total, err
}

func (r *materialRepo) Update(ctx context.Context, m *model.Material) error {
	// Metadata columns only. Quantity belongs to the ledger engine; writing
	// it here would revert a movement that committed after m was read.
	return r.db.WithContext(ctx).Model(m).
		Select("name", "description", "location", "min_quantity", "category", "active", "updated_at").
		Updates(map[string]interface{}{
			"name":         m.Name,
			"description":  m.Description,
			"location":     m.Location,
			"min_quantity": m.MinQuantity,
			"category":     m.Category,
			"active":       m.Active,
			"updated_at":   time.Now(),
		}).Error
}

func (r *materialRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Material{}).
		Where("id = ?", id).Update("active", false).Error
}

func (r *materialRepo) UpdateQuantityCAS(tx *gorm.DB, id uuid.UUID, expectedQty, newQty int) error {
	res := tx.Model(&model.Material{}).
		Where("id = ? AND quantity = ?", id, expectedQty).
		Updates(map[string]interface{}{
			"quantity":   newQty,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleQuantity
	}
	return nil
}

func (r *materialRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Material{}).
		Where("active = true").Count(&n).Error
	return n, err
}

func (r *materialRepo) CountActiveInStock(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Material{}).
		Where("active = true AND quantity > 0").Count(&n).Error
	return n, err
}

func (r *materialRepo) CountActiveLowStock(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Material{}).
		Where("active = true AND quantity <= min_quantity").Count(&n).Error
	return n, err
}

func (r *materialRepo) CountActiveByCategory(ctx context.Context) ([]dto.CategoryCount, error) {
	var rows []struct {
		Category *string
		Total    int64
	}
	err := r.db.WithContext(ctx).Model(&model.Material{}).
		Select("category, COUNT(*) AS total").
		Where("active = true").
		Group("category").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make([]dto.CategoryCount, 0, len(rows))
	for _, row := range rows {
		name := "uncategorized"
		if row.Category != nil && *row.Category != "" {
			name = *row.Category
		}
		counts = append(counts, dto.CategoryCount{Name: name, Total: row.Total})
	}
	return counts, nil
}

func (r *materialRepo) ListActiveLowStock(ctx context.Context) ([]model.Material, error) {
	var materials []model.Material
	err := r.db.WithContext(ctx).
		Where("active = true AND quantity <= min_quantity").
		Order("updated_at DESC").
		Find(&materials).Error
	return materials, err
}

func (r *materialRepo) DB() *gorm.DB { return r.db }
