package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string
type PaymentMethod string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"

	PaymentMethodCOD    PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMethodOnline PaymentMethod = "ONLINE"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodOnline
}

// Payment is the 1:1 settlement companion of an Order. Amount equals the
// order's final amount at creation and never changes afterwards.
type Payment struct {
	PaymentID       uint            `gorm:"primaryKey" json:"payment_id"`
	OrderID         uint            `gorm:"uniqueIndex;not null" json:"order_id"`
	Method          PaymentMethod   `gorm:"type:VARCHAR(20)" json:"method"`
	Status          PaymentStatus   `gorm:"type:VARCHAR(20);default:'PENDING'" json:"status"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`
	TransactionID   string          `json:"transaction_id"`
	ExternalOrderID string          `json:"external_order_id"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
