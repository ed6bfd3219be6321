package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Wasion-it/fork-controle-material/internal/dto"
	"github.com/Wasion-it/fork-controle-material/internal/model"
	"github.com/Wasion-it/fork-controle-material/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Attribution used for the ledger entry seeded at registration time.
const (
	SystemTechnician = "system"
	InitialStockNote = "initial registration"
)

// MovementInput carries a validated-by-the-engine movement request. The
// technician is the actor identity resolved by the auth boundary; the engine
// trusts it and only checks that it is present.
type MovementInput struct {
	MaterialID uuid.UUID
	Direction  string
	Amount     int
	Technician string
	Note       *string
}

// LowStockNotifier is implemented by the worker dispatcher. Notification is
// best-effort: the engine never fails a committed movement over it.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, m *model.Material)
}

// LedgerService is the single authority for mutating material quantities.
// Every quantity change commits together with exactly one ledger entry, and
// concurrent movements on one material serialize through a compare-and-swap
// on the previously read quantity.
type LedgerService interface {
	RecordMovement(ctx context.Context, in MovementInput) (*dto.RecordMovementResponse, error)

	// RegisterMaterial persists a new material and, when its starting
	// quantity is positive, seeds the matching ledger entry in the same
	// transaction. A zero starting quantity produces no entry.
	RegisterMaterial(ctx context.Context, m *model.Material) error
}

type ledgerService struct {
	materials repository.MaterialRepository
	movements repository.MovementRepository
	notifier  LowStockNotifier
	timeout   time.Duration
}

func NewLedgerService(
	materials repository.MaterialRepository,
	movements repository.MovementRepository,
	notifier LowStockNotifier,
	timeout time.Duration,
) LedgerService {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &ledgerService{
		materials: materials,
		movements: movements,
		notifier:  notifier,
		timeout:   timeout,
	}
}

func (s *ledgerService) RecordMovement(ctx context.Context, in MovementInput) (*dto.RecordMovementResponse, error) {
	// Validation happens before any state is read or written.
	if in.Direction != model.DirectionIn && in.Direction != model.DirectionOut {
		return nil, fmt.Errorf("%w: direction must be %q or %q", ErrInvalidInput, model.DirectionIn, model.DirectionOut)
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	}
	if in.Technician == "" {
		return nil, fmt.Errorf("%w: technician is required", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	for attempt := 0; ; attempt++ {
		material, err := s.materials.FindByID(ctx, in.MaterialID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("material %s: %w", in.MaterialID, ErrNotFound)
			}
			if errors.Is(err, context.DeadlineExceeded) {
				// Deadline hit during a retry re-read. Same answer as losing
				// the race outright: the caller should retry.
				return nil, ErrBusy
			}
			return nil, fmt.Errorf("load material: %w", err)
		}
		if !material.Active {
			return nil, ErrMaterialInactive
		}

		before := material.Quantity
		after := before + in.Amount
		if in.Direction == model.DirectionOut {
			after = before - in.Amount
		}
		if after < 0 {
			return nil, fmt.Errorf("%w: have %d, requested %d", ErrInsufficientStock, before, in.Amount)
		}

		movement := &model.Movement{
			MaterialID:     in.MaterialID,
			Direction:      in.Direction,
			Amount:         in.Amount,
			Technician:     in.Technician,
			Note:           in.Note,
			QuantityBefore: before,
			QuantityAfter:  after,
		}

		// Both writes commit or neither does. The CAS condition detects a
		// concurrent movement that changed the quantity since the read above;
		// the whole transaction rolls back and the loop re-reads.
		txErr := runTx(ctx, s.materials.DB(), func(tx *gorm.DB) error {
			if err := s.materials.UpdateQuantityCAS(tx, in.MaterialID, before, after); err != nil {
				return err
			}
			return s.movements.CreateTx(tx, movement)
		})
		if txErr == nil {
			material.Quantity = after
			material.UpdatedAt = time.Now()
			s.maybeNotify(ctx, in.Direction, material)
			return &dto.RecordMovementResponse{
				Movement: MovementToResponse(movement),
				Material: MaterialToResponse(material),
			}, nil
		}
		if !errors.Is(txErr, repository.ErrStaleQuantity) {
			if errors.Is(txErr, context.DeadlineExceeded) {
				return nil, ErrBusy
			}
			return nil, fmt.Errorf("record movement: %w", txErr)
		}

		// Lost the race — back off briefly, bounded by the deadline.
		select {
		case <-ctx.Done():
			log.Warn().
				Str("material_id", in.MaterialID.String()).
				Int("attempts", attempt+1).
				Msg("movement gave up under contention")
			return nil, ErrBusy
		case <-time.After(time.Duration(attempt+1) * 2 * time.Millisecond):
		}
	}
}

func (s *ledgerService) RegisterMaterial(ctx context.Context, m *model.Material) error {
	return runTx(ctx, s.materials.DB(), func(tx *gorm.DB) error {
		if err := s.materials.CreateTx(tx, m); err != nil {
			return err
		}
		if m.Quantity == 0 {
			// Zero-quantity registrations carry no ledger entry at all.
			return nil
		}
		note := InitialStockNote
		seed := &model.Movement{
			MaterialID:     m.ID,
			Direction:      model.DirectionIn,
			Amount:         m.Quantity,
			Technician:     SystemTechnician,
			Note:           &note,
			QuantityBefore: 0,
			QuantityAfter:  m.Quantity,
		}
		return s.movements.CreateTx(tx, seed)
	})
}

// maybeNotify enqueues a low-stock alert after an out movement lands at or
// below the threshold. Failures are the worker's problem, not the caller's.
func (s *ledgerService) maybeNotify(ctx context.Context, direction string, m *model.Material) {
	if s.notifier == nil || direction != model.DirectionOut || !m.LowStock() {
		return
	}
	s.notifier.NotifyLowStock(ctx, m)
}

// ─── Mapping helpers shared across services ──────────────────────────────────

func MaterialToResponse(m *model.Material) dto.MaterialResponse {
	return dto.MaterialResponse{
		ID:          m.ID.String(),
		Name:        m.Name,
		Description: m.Description,
		Quantity:    m.Quantity,
		MinQuantity: m.MinQuantity,
		Location:    m.Location,
		Category:    m.Category,
		Active:      m.Active,
		LowStock:    m.LowStock(),
		UpdatedAt:   m.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func MovementToResponse(mv *model.Movement) dto.MovementResponse {
	resp := dto.MovementResponse{
		ID:             mv.ID,
		MaterialID:     mv.MaterialID.String(),
		Direction:      mv.Direction,
		Amount:         mv.Amount,
		Technician:     mv.Technician,
		Note:           mv.Note,
		QuantityBefore: mv.QuantityBefore,
		QuantityAfter:  mv.QuantityAfter,
		CreatedAt:      mv.CreatedAt.UTC().Format(time.RFC3339),
	}
	if mv.Material != nil {
		resp.MaterialName = mv.Material.Name
	}
	return resp
}
