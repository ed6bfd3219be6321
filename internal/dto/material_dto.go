package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateMaterialRequest struct {
	Name        string  `json:"name"         validate:"required,min=2,max=120"`
	Description string  `json:"description"  validate:"required"`
	Quantity    int     `json:"quantity"     validate:"min=0"`
	Location    string  `json:"location"     validate:"required"`
	MinQuantity *int    `json:"min_quantity" validate:"omitempty,min=0"`
	Category    *string `json:"category"`
}

// UpdateMaterialRequest edits metadata only. Quantity is deliberately absent:
// stock changes go through POST /v1/movements and nothing else.
type UpdateMaterialRequest struct {
	Name        *string `json:"name"         validate:"omitempty,min=2,max=120"`
	Description *string `json:"description"  validate:"omitempty,min=1"`
	Location    *string `json:"location"     validate:"omitempty,min=1"`
	MinQuantity *int    `json:"min_quantity" validate:"omitempty,min=0"`
	Category    *string `json:"category"`
	Active      *bool   `json:"active"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type MaterialFilter struct {
	// Active: "false" = inactive only, "all" = everything, default = active only
	Active   string `form:"active"`
	Category string `form:"category"`
	LowStock bool   `form:"low_stock"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MaterialResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	MinQuantity int     `json:"min_quantity"`
	Location    string  `json:"location"`
	Category    *string `json:"category"`
	Active      bool    `json:"active"`
	LowStock    bool    `json:"low_stock"`
	UpdatedAt   string  `json:"updated_at"`
}

type MaterialListResponse struct {
	Data  []MaterialResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// MaterialDetailResponse embeds the material's most recent movements.
type MaterialDetailResponse struct {
	MaterialResponse
	Movements []MovementResponse `json:"movements"`
}
