package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string          `gorm:"not null" json:"name"`
	Description   string          `gorm:"type:VARCHAR(2000)" json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	ImageURL      string          `json:"image_url"`
	Unit          string          `json:"unit"` // kg, gram, litre, piece
	Brand         string          `json:"brand"`
	IsAvailable   bool            `gorm:"default:true" json:"is_available"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
