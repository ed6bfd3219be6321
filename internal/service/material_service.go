package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Wasion-it/fork-controle-material/internal/dto"
	"github.com/Wasion-it/fork-controle-material/internal/model"
	"github.com/Wasion-it/fork-controle-material/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaterialService manages material metadata. Quantity never changes here:
// registration delegates to the ledger engine, and every later change goes
// through LedgerService.RecordMovement.
type MaterialService interface {
	Create(ctx context.Context, req dto.CreateMaterialRequest) (*dto.MaterialResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.MaterialDetailResponse, error)
	List(ctx context.Context, filter dto.MaterialFilter) (*dto.MaterialListResponse, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, req dto.UpdateMaterialRequest) (*dto.MaterialResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) (*dto.MaterialResponse, error)
}

type materialService struct {
	repo      repository.MaterialRepository
	movements repository.MovementRepository
	ledger    LedgerService
}

func NewMaterialService(
	repo repository.MaterialRepository,
	movements repository.MovementRepository,
	ledger LedgerService,
) MaterialService {
	return &materialService{repo: repo, movements: movements, ledger: ledger}
}

func (s *materialService) Create(ctx context.Context, req dto.CreateMaterialRequest) (*dto.MaterialResponse, error) {
	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	location := strings.TrimSpace(req.Location)

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if location == "" {
		return nil, fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrInvalidInput)
	}

	minQty := 5
	if req.MinQuantity != nil {
		if *req.MinQuantity < 0 {
			return nil, fmt.Errorf("%w: min_quantity cannot be negative", ErrInvalidInput)
		}
		minQty = *req.MinQuantity
	}

	material := &model.Material{
		Name:        name,
		Description: description,
		Quantity:    req.Quantity,
		MinQuantity: minQty,
		Location:    location,
		Category:    normalizeCategory(req.Category),
		Active:      true,
	}
	if material.ID == uuid.Nil {
		material.ID = uuid.New()
	}

	// The ledger engine owns the atomic create-and-seed.
	if err := s.ledger.RegisterMaterial(ctx, material); err != nil {
		return nil, fmt.Errorf("create material: %w", err)
	}

	resp := MaterialToResponse(material)
	return &resp, nil
}

func (s *materialService) GetByID(ctx context.Context, id uuid.UUID) (*dto.MaterialDetailResponse, error) {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("material %s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	movements, err := s.movements.ListForMaterial(ctx, id, 50)
	if err != nil {
		return nil, err
	}

	detail := &dto.MaterialDetailResponse{
		MaterialResponse: MaterialToResponse(material),
		Movements:        make([]dto.MovementResponse, 0, len(movements)),
	}
	for i := range movements {
		detail.Movements = append(detail.Movements, MovementToResponse(&movements[i]))
	}
	return detail, nil
}

func (s *materialService) List(ctx context.Context, filter dto.MaterialFilter) (*dto.MaterialListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	materials, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	data := make([]dto.MaterialResponse, 0, len(materials))
	for i := range materials {
		data = append(data, MaterialToResponse(&materials[i]))
	}
	return &dto.MaterialListResponse{
		Data:  data,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *materialService) UpdateMetadata(ctx context.Context, id uuid.UUID, req dto.UpdateMaterialRequest) (*dto.MaterialResponse, error) {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("material %s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		material.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, fmt.Errorf("%w: description cannot be empty", ErrInvalidInput)
		}
		material.Description = strings.TrimSpace(*req.Description)
	}
	if req.Location != nil {
		if strings.TrimSpace(*req.Location) == "" {
			return nil, fmt.Errorf("%w: location cannot be empty", ErrInvalidInput)
		}
		material.Location = strings.TrimSpace(*req.Location)
	}
	if req.MinQuantity != nil {
		if *req.MinQuantity < 0 {
			return nil, fmt.Errorf("%w: min_quantity cannot be negative", ErrInvalidInput)
		}
		material.MinQuantity = *req.MinQuantity
	}
	if req.Category != nil {
		material.Category = normalizeCategory(req.Category)
	}
	if req.Active != nil {
		// Reactivation emits no ledger entry: quantity is untouched.
		material.Active = *req.Active
	}

	if err := s.repo.Update(ctx, material); err != nil {
		return nil, fmt.Errorf("update material: %w", err)
	}
	resp := MaterialToResponse(material)
	return &resp, nil
}

func (s *materialService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("material %s: %w", id, ErrNotFound)
		}
		return err
	}
	// Idempotent: deactivating an already-inactive material is a no-op.
	return s.repo.SoftDelete(ctx, id)
}

func (s *materialService) Reactivate(ctx context.Context, id uuid.UUID) (*dto.MaterialResponse, error) {
	active := true
	return s.UpdateMetadata(ctx, id, dto.UpdateMaterialRequest{Active: &active})
}

// normalizeCategory trims and maps empty strings to NULL so the category
// grouping has a single "uncategorized" bucket.
func normalizeCategory(c *string) *string {
	if c == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*c)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
