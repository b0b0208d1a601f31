package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PriceEntry is one observed price from one source. Price is a formatted
// currency string with two decimal places ("$12.50").
type PriceEntry struct {
	Source string `json:"source"`
	Price  string `json:"price"`
	URL    string `json:"url"`
}

// Product is the canonical merged record for one barcode. Name, image, brand
// and category are filled by the first source that supplies them;
// OriginPlatform/OriginURL record which source supplied the name.
type Product struct {
	BaseModel
	Barcode        string                              `gorm:"type:varchar(255);uniqueIndex;not null" json:"barcode" validate:"required"`
	Name           string                              `gorm:"type:text" json:"name"`
	Price          *decimal.Decimal                    `gorm:"type:numeric(10,2)" json:"price,omitempty"` // client-supplied asking price
	ImageURL       string                              `gorm:"type:text" json:"image_url"`
	Description    string                              `gorm:"type:text" json:"description"`
	Brand          string                              `gorm:"type:varchar(255)" json:"brand"`
	Category       string                              `gorm:"type:varchar(255)" json:"category"`
	OriginPlatform string                              `gorm:"type:varchar(100)" json:"origin_platform"`
	OriginURL      string                              `gorm:"type:text" json:"origin_url"`
	Prices         datatypes.JSONSlice[PriceEntry]     `gorm:"type:jsonb" json:"prices"`

	// Relasi
	ScanEvents []ScanEvent `json:"scan_events,omitempty"`
}
