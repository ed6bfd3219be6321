package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RecordMovementRequest struct {
	MaterialID string  `json:"material_id" validate:"required,uuid"`
	Direction  string  `json:"direction"   validate:"required,oneof=in out"`
	Amount     int     `json:"amount"      validate:"required,gt=0"`
	// Technician is optional: when empty the handler fills in the display name
	// resolved from the caller's token.
	Technician string  `json:"technician"`
	Note       *string `json:"note"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type MovementFilter struct {
	MaterialID string `form:"material_id" validate:"omitempty,uuid"`
	Direction  string `form:"direction"   validate:"omitempty,oneof=in out"`
	Limit      int    `form:"limit,default=100" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovementResponse struct {
	ID             uint64  `json:"id"`
	MaterialID     string  `json:"material_id"`
	MaterialName   string  `json:"material_name,omitempty"`
	Direction      string  `json:"direction"`
	Amount         int     `json:"amount"`
	Technician     string  `json:"technician"`
	Note           *string `json:"note"`
	QuantityBefore int     `json:"quantity_before"`
	QuantityAfter  int     `json:"quantity_after"`
	CreatedAt      string  `json:"created_at"`
}

// RecordMovementResponse returns both sides of the atomic apply.
type RecordMovementResponse struct {
	Movement MovementResponse `json:"movement"`
	Material MaterialResponse `json:"material"`
}
