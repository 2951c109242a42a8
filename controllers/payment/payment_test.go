package paymentControllers

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/freshkart-dev/grocery-api/apperrors"
	cartControllers "github.com/freshkart-dev/grocery-api/controllers/cart"
	orderControllers "github.com/freshkart-dev/grocery-api/controllers/order"
	"github.com/freshkart-dev/grocery-api/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Address{}, &models.Product{},
		&models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{}, &models.Payment{},
	))
	return db
}

// placeOnlineOrder seeds a user with one product (price 100, stock 10),
// places an online order for 2 units and returns it.
func placeOnlineOrder(t *testing.T, db *gorm.DB) (*orderControllers.OrderView, uint) {
	t.Helper()
	user := &models.User{Email: "a@example.com", Role: models.RoleUser}
	require.NoError(t, db.Create(user).Error)
	product := &models.Product{
		Name:          "Product A",
		Price:         decimal.NewFromInt(100),
		StockQuantity: 10,
		IsAvailable:   true,
	}
	require.NoError(t, db.Create(product).Error)

	_, err := cartControllers.AddToCart(db, user.Email,
		cartControllers.AddToCartInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	view, err := orderControllers.PlaceOrder(db, user.Email, orderControllers.PlaceOrderRequest{
		DeliveryAddress: "12 Main Rd, Pune",
		PaymentMethod:   models.PaymentMethodOnline,
	})
	require.NoError(t, err)
	return view, product.ID
}

func requireKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr), "expected apperrors.Error, got %v", err)
	require.Equal(t, kind, appErr.Kind)
}

func TestConfirmPaymentPropagatesToOrder(t *testing.T) {
	db := setupTestDB(t)
	placed, _ := placeOnlineOrder(t, db)

	err := ConfirmPayment(db, ConfirmPaymentRequest{
		OrderID:         placed.OrderID,
		TransactionID:   "txn_123",
		ExternalOrderID: "gw_456",
	})
	require.NoError(t, err)

	var payment models.Payment
	require.NoError(t, db.First(&payment, "order_id = ?", placed.OrderID).Error)
	require.Equal(t, models.PaymentStatusCompleted, payment.Status)
	require.Equal(t, "txn_123", payment.TransactionID)
	require.Equal(t, "gw_456", payment.ExternalOrderID)
	require.NotNil(t, payment.PaidAt)

	var order models.Order
	require.NoError(t, db.First(&order, "order_id = ?", placed.OrderID).Error)
	require.Equal(t, models.OrderStatusConfirmed, order.Status)
}

func TestConfirmPaymentTwiceRejected(t *testing.T) {
	db := setupTestDB(t)
	placed, _ := placeOnlineOrder(t, db)

	req := ConfirmPaymentRequest{OrderID: placed.OrderID, TransactionID: "txn_123"}
	require.NoError(t, ConfirmPayment(db, req))

	err := ConfirmPayment(db, req)
	requireKind(t, err, apperrors.KindInvalidState)
}

func TestConfirmPaymentUnknownOrder(t *testing.T) {
	db := setupTestDB(t)
	err := ConfirmPayment(db, ConfirmPaymentRequest{OrderID: 999, TransactionID: "txn_123"})
	requireKind(t, err, apperrors.KindNotFound)
}

func TestFailPaymentCancelsOrderAndKeepsStock(t *testing.T) {
	db := setupTestDB(t)
	placed, productID := placeOnlineOrder(t, db)

	require.NoError(t, FailPayment(db, placed.OrderID, false))

	var payment models.Payment
	require.NoError(t, db.First(&payment, "order_id = ?", placed.OrderID).Error)
	require.Equal(t, models.PaymentStatusFailed, payment.Status)

	var order models.Order
	require.NoError(t, db.First(&order, "order_id = ?", placed.OrderID).Error)
	require.Equal(t, models.OrderStatusCancelled, order.Status)

	// default policy: placement reserved the stock, failure keeps it reserved
	var product models.Product
	require.NoError(t, db.First(&product, productID).Error)
	require.Equal(t, 8, product.StockQuantity)
}

func TestFailPaymentRestoresStockWhenEnabled(t *testing.T) {
	db := setupTestDB(t)
	placed, productID := placeOnlineOrder(t, db)

	require.NoError(t, FailPayment(db, placed.OrderID, true))

	var product models.Product
	require.NoError(t, db.First(&product, productID).Error)
	require.Equal(t, 10, product.StockQuantity)
}

func TestFailAfterConfirmRejected(t *testing.T) {
	db := setupTestDB(t)
	placed, _ := placeOnlineOrder(t, db)

	require.NoError(t, ConfirmPayment(db, ConfirmPaymentRequest{
		OrderID:       placed.OrderID,
		TransactionID: "txn_123",
	}))

	err := FailPayment(db, placed.OrderID, false)
	requireKind(t, err, apperrors.KindInvalidState)
}
