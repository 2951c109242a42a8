package paymentControllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/freshkart-dev/grocery-api/apperrors"
	"github.com/freshkart-dev/grocery-api/models"
)

type ConfirmPaymentRequest struct {
	OrderID         uint   `json:"order_id" binding:"required"`
	TransactionID   string `json:"transaction_id" binding:"required"`
	ExternalOrderID string `json:"external_order_id"`
}

// findPendingPayment loads the payment for an order and rejects settlements
// of already-settled payments, so a duplicate gateway callback cannot
// re-apply.
func findPendingPayment(tx *gorm.DB, orderID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := tx.First(&payment, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("payment")
		}
		return nil, err
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, apperrors.InvalidState("payment already " + string(payment.Status))
	}
	return &payment, nil
}

// -------- Core Logic --------

// ConfirmPayment settles a pending payment as COMPLETED and confirms the
// owning order.
func ConfirmPayment(db *gorm.DB, req ConfirmPaymentRequest) error {
	return db.Transaction(func(tx *gorm.DB) error {
		payment, err := findPendingPayment(tx, req.OrderID)
		if err != nil {
			return err
		}

		now := time.Now()
		payment.Status = models.PaymentStatusCompleted
		payment.TransactionID = req.TransactionID
		payment.ExternalOrderID = req.ExternalOrderID
		payment.PaidAt = &now
		if err := tx.Save(payment).Error; err != nil {
			return err
		}

		return tx.Model(&models.Order{}).
			Where("order_id = ?", payment.OrderID).
			Update("status", models.OrderStatusConfirmed).Error
	})
}

// FailPayment settles a pending payment as FAILED and cancels the owning
// order. Stock stays decremented unless restoreStock is set: the source
// system never returned failed-order stock to inventory, which reads like a
// reserve-on-placement policy, so restoration is opt-in.
func FailPayment(db *gorm.DB, orderID uint, restoreStock bool) error {
	return db.Transaction(func(tx *gorm.DB) error {
		payment, err := findPendingPayment(tx, orderID)
		if err != nil {
			return err
		}

		payment.Status = models.PaymentStatusFailed
		if err := tx.Save(payment).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Order{}).
			Where("order_id = ?", payment.OrderID).
			Update("status", models.OrderStatusCancelled).Error; err != nil {
			return err
		}

		if !restoreStock {
			return nil
		}

		var items []models.OrderItem
		if err := tx.Where("order_id = ?", payment.OrderID).Find(&items).Error; err != nil {
			return err
		}
		for _, item := range items {
			if item.ProductID == nil {
				// product deleted since placement, nothing to restore
				continue
			}
			if err := tx.Model(&models.Product{}).
				Where("id = ?", *item.ProductID).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).
				Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// -------- Handlers --------

func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.Status(err), gin.H{"error": apperrors.Message(err)})
}

// POST /payments/confirm
func ConfirmPaymentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ConfirmPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		if err := ConfirmPayment(db, req); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Payment confirmed successfully"})
	}
}

// POST /payments/fail/:orderId
func FailPaymentHandler(db *gorm.DB, restoreStock bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := strconv.ParseUint(c.Param("orderId"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
			return
		}
		if err := FailPayment(db, uint(orderID), restoreStock); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Payment marked as failed"})
	}
}
