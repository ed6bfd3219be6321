package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Wasion-it/fork-controle-material/internal/dto"
	"github.com/Wasion-it/fork-controle-material/internal/model"
	"github.com/Wasion-it/fork-controle-material/internal/repository"

	"github.com/google/uuid"
)

// ReportService computes read-only aggregations over the material store and
// the ledger. Everything is recomputed per call from the current rows —
// nothing here is cached, so reports can never go stale.
type ReportService interface {
	Stats(ctx context.Context) (*dto.StatsResponse, error)
	ListMovements(ctx context.Context, filter dto.MovementFilter) ([]dto.MovementResponse, error)
	MovementReport(ctx context.Context, filter dto.MovementReportFilter) (*dto.MovementReportResponse, error)
}

type reportService struct {
	materials repository.MaterialRepository
	movements repository.MovementRepository
	now       func() time.Time
}

func NewReportService(materials repository.MaterialRepository, movements repository.MovementRepository) ReportService {
	return &reportService{materials: materials, movements: movements, now: time.Now}
}

func (s *reportService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	total, err := s.materials.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	inStock, err := s.materials.CountActiveInStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	lowStock, err := s.materials.CountActiveLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	// Movements since local midnight — "today" in the server's calendar.
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.movements.CountSince(ctx, midnight)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	categories, err := s.materials.CountActiveByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	return &dto.StatsResponse{
		TotalMaterials:    total,
		MaterialsInStock:  inStock,
		MaterialsLowStock: lowStock,
		MovementsToday:    today,
		Categories:        categories,
	}, nil
}

func (s *reportService) ListMovements(ctx context.Context, filter dto.MovementFilter) ([]dto.MovementResponse, error) {
	repoFilter := repository.MovementFilter{
		Direction: filter.Direction,
		Limit:     filter.Limit,
	}
	if repoFilter.Limit < 1 {
		repoFilter.Limit = 100
	}
	if filter.MaterialID != "" {
		id, err := uuid.Parse(filter.MaterialID)
		if err != nil {
			return nil, fmt.Errorf("%w: material_id is not a valid id", ErrInvalidInput)
		}
		repoFilter.MaterialID = &id
	}

	movements, err := s.movements.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	return movementsToResponses(movements), nil
}

func (s *reportService) MovementReport(ctx context.Context, filter dto.MovementReportFilter) (*dto.MovementReportResponse, error) {
	repoFilter := repository.MovementFilter{Direction: filter.Direction}

	var err error
	if repoFilter.From, err = parseReportTime(filter.From, false); err != nil {
		return nil, fmt.Errorf("%w: from must be RFC 3339 or YYYY-MM-DD", ErrInvalidInput)
	}
	if repoFilter.To, err = parseReportTime(filter.To, true); err != nil {
		return nil, fmt.Errorf("%w: to must be RFC 3339 or YYYY-MM-DD", ErrInvalidInput)
	}

	movements, err := s.movements.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	var summary dto.MovementReportSummary
	for i := range movements {
		if movements[i].Direction == model.DirectionIn {
			summary.TotalIn++
			summary.AmountIn += int64(movements[i].Amount)
		} else {
			summary.TotalOut++
			summary.AmountOut += int64(movements[i].Amount)
		}
	}

	return &dto.MovementReportResponse{
		Movements: movementsToResponses(movements),
		Summary:   summary,
	}, nil
}

// parseReportTime accepts RFC 3339 timestamps or bare dates. A bare date used
// as the range end is widened to the end of that day so "to=2026-03-01"
// includes the whole of March 1st.
func parseReportTime(raw string, endOfDay bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func movementsToResponses(movements []model.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		out = append(out, MovementToResponse(&movements[i]))
	}
	return out
}
