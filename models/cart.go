package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	CartID    uint       `gorm:"primaryKey" json:"cart_id"`
	UserID    uint       `gorm:"uniqueIndex"` // one cart per user
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// The (cart_id, product_id) index keeps concurrent merges of the same product
// from inserting duplicate rows.
type CartItem struct {
	CartItemID  uint            `gorm:"primaryKey" json:"cart_item_id"`
	CartID      uint            `gorm:"index:idx_cart_product,unique"`
	ProductID   uint            `gorm:"index:idx_cart_product,unique" json:"product_id"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `gorm:"type:decimal(10,2)" json:"price_at_time"`
	AddedAt     time.Time       `json:"added_at"`
}
