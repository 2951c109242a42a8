package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"   // placed, awaiting settlement
	OrderStatusConfirmed OrderStatus = "CONFIRMED" // paid, or COD
	OrderStatusShipped   OrderStatus = "SHIPPED"   // out for delivery
	OrderStatusDelivered OrderStatus = "DELIVERED" // customer received the order
	OrderStatusCancelled OrderStatus = "CANCELLED" // settlement failed or cancelled
)

// orderTransitions is the legal status graph. DELIVERED and CANCELLED are
// terminal; CANCELLED is reachable from every non-terminal state.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	OrderID         uint            `gorm:"primaryKey" json:"order_id"`
	OrderRef        string          `gorm:"uniqueIndex" json:"order_ref"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Status          OrderStatus     `gorm:"type:VARCHAR(20);default:'PENDING'" json:"status"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2)" json:"total_amount"`
	DeliveryCharge  decimal.Decimal `gorm:"type:decimal(10,2)" json:"delivery_charge"`
	FinalAmount     decimal.Decimal `gorm:"type:decimal(10,2)" json:"final_amount"`
	DeliveryAddress string          `json:"delivery_address"`
	DeliveryNote    string          `json:"delivery_note"`
	Payment         *Payment        `gorm:"foreignKey:OrderID" json:"payment,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem snapshots name, unit and price at placement time; ProductID is a
// pointer so the row survives later product deletion.
type OrderItem struct {
	OrderItemID uint            `gorm:"primaryKey" json:"order_item_id"`
	OrderID     uint            `gorm:"index"`
	ProductID   *uint           `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductUnit string          `json:"product_unit"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `gorm:"type:decimal(10,2)" json:"price_at_time"`
}
