package model

import (
	"time"

	"github.com/google/uuid"
)

// Material is a tracked IT inventory item. Quantity is only ever written by
// the ledger engine; metadata edits go through the material service and may
// not touch it.
type Material struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"index;not null"`
	Description string    `gorm:"not null"`
	Quantity    int       `gorm:"not null;default:0"`
	// MinQuantity is the low-stock threshold: quantity <= min_quantity flags
	// the material in listings, stats, and alerting.
	MinQuantity int     `gorm:"not null;default:5"`
	Location    string  `gorm:"not null"`
	Category    *string `gorm:"index"`
	Active      bool    `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LowStock reports whether the material sits at or below its threshold.
func (m *Material) LowStock() bool { return m.Quantity <= m.MinQuantity }
