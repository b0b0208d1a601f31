package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScanEvent is one row of the append-only scan audit log. Events are created
// on every scan of any barcode and never mutated or deleted.
type ScanEvent struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;" json:"id"`
	ProductID uuid.UUID  `gorm:"type:uuid;index;not null" json:"product_id"`
	Product   Product    `json:"product,omitempty" validate:"-"` // Relasi
	ScannedAt time.Time  `gorm:"index" json:"scanned_at"`
	Latitude  *float64   `gorm:"type:numeric(10,8)" json:"latitude,omitempty"`
	Longitude *float64   `gorm:"type:numeric(11,8)" json:"longitude,omitempty"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
}

func (e *ScanEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.ScannedAt.IsZero() {
		e.ScannedAt = time.Now()
	}
	return
}
