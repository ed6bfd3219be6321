package dto

// ─── Stats ───────────────────────────────────────────────────────────────────

type CategoryCount struct {
	Name  string `json:"name"` // NULL categories are bucketed as "uncategorized"
	Total int64  `json:"total"`
}

type StatsResponse struct {
	TotalMaterials    int64           `json:"total_materials"`     // active
	MaterialsInStock  int64           `json:"materials_in_stock"`  // active, quantity > 0
	MaterialsLowStock int64           `json:"materials_low_stock"` // active, quantity <= min_quantity
	MovementsToday    int64           `json:"movements_today"`
	Categories        []CategoryCount `json:"categories"`
}

// ─── Period report ───────────────────────────────────────────────────────────

type MovementReportFilter struct {
	From      string `form:"from"      validate:"omitempty"` // RFC 3339 or YYYY-MM-DD
	To        string `form:"to"        validate:"omitempty"`
	Direction string `form:"direction" validate:"omitempty,oneof=in out"`
}

type MovementReportSummary struct {
	TotalIn   int64 `json:"total_in"`   // entry count, direction=in
	TotalOut  int64 `json:"total_out"`  // entry count, direction=out
	AmountIn  int64 `json:"amount_in"`  // summed amounts, direction=in
	AmountOut int64 `json:"amount_out"` // summed amounts, direction=out
}

type MovementReportResponse struct {
	Movements []MovementResponse    `json:"movements"`
	Summary   MovementReportSummary `json:"summary"`
}
