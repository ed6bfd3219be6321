package model

import (
	"time"

	"github.com/google/uuid"
)

// Movement directions. Any other value is rejected before a row is written.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Movement is one immutable entry in the stock ledger. Rows are append-only:
// they are never updated or deleted, and QuantityBefore/QuantityAfter chain
// per material (each entry's before equals the previous entry's after).
// The auto-increment ID makes commit order checkable.
type Movement struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	MaterialID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Direction      string    `gorm:"not null"` // "in" | "out"
	Amount         int       `gorm:"not null"` // always positive; Direction carries the sign
	Technician     string    `gorm:"not null"` // resolved actor identity from the auth boundary
	Note           *string
	QuantityBefore int       `gorm:"not null"`
	QuantityAfter  int       `gorm:"not null"`
	CreatedAt      time.Time `gorm:"index"`

	Material *Material `gorm:"foreignKey:MaterialID"`
}
