package cartControllers

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

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: "Test User", Role: models.RoleUser}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createProduct(t *testing.T, db *gorm.DB, name string, price int64, stock int, available bool) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:          name,
		Price:         decimal.NewFromInt(price),
		StockQuantity: stock,
		Unit:          "kg",
		IsAvailable:   available,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func requireKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr), "expected apperrors.Error, got %v", err)
	require.Equal(t, kind, appErr.Kind)
}

func requireAmount(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.NewFromInt(want)),
		"expected %d, got %s", want, got)
}

func TestGetCartCreatesLazily(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")

	view, err := GetCart(db, "a@example.com")
	require.NoError(t, err)
	require.Empty(t, view.Items)
	require.Zero(t, view.TotalItems)

	var count int64
	require.NoError(t, db.Model(&models.Cart{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	// second access reuses the same cart
	again, err := GetCart(db, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, view.CartID, again.CartID)
}

func TestGetCartUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	_, err := GetCart(db, "nobody@example.com")
	requireKind(t, err, apperrors.KindNotFound)
}

func TestAddToCart(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")
	product := createProduct(t, db, "Basmati Rice", 200, 10, true)

	view, err := AddToCart(db, "a@example.com", AddToCartInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, "Basmati Rice", view.Items[0].ProductName)
	require.Equal(t, 2, view.Items[0].Quantity)
	requireAmount(t, 200, view.Items[0].PriceAtTime)
	requireAmount(t, 400, view.Items[0].Subtotal)
	requireAmount(t, 400, view.TotalAmount)
	require.Equal(t, 2, view.TotalItems)

	// adding to the cart must not touch stock
	var fresh models.Product
	require.NoError(t, db.First(&fresh, product.ID).Error)
	require.Equal(t, 10, fresh.StockQuantity)
}

func TestAddToCartMergeKeepsPriceSnapshot(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")
	product := createProduct(t, db, "Milk", 50, 20, true)

	_, err := AddToCart(db, "a@example.com", AddToCartInput{ProductID: product.ID, Quantity: 3})
	require.NoError(t, err)

	// catalog re-price must not affect the existing line
	require.NoError(t, db.Model(product).Update("price", decimal.NewFromInt(80)).Error)

	view, err := AddToCart(db, "a@example.com", AddToCartInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, 5, view.Items[0].Quantity)
	requireAmount(t, 50, view.Items[0].PriceAtTime)
	requireAmount(t, 250, view.TotalAmount)
}

func TestAddToCartRepeatedMergesAccumulate(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")
	product := createProduct(t, db, "Milk", 50, 20, true)

	// the merge is a single increment in the store, so every add must land
	var view *CartView
	var err error
	for _, quantity := range []int{1, 2, 3} {
		view, err = AddToCart(db, "a@example.com", AddToCartInput{ProductID: product.ID, Quantity: quantity})
		require.NoError(t, err)
	}
	require.Len(t, view.Items, 1)
	require.Equal(t, 6, view.Items[0].Quantity)
	requireAmount(t, 50, view.Items[0].PriceAtTime)
	requireAmount(t, 300, view.TotalAmount)

	var item models.CartItem
	require.NoError(t, db.First(&item, "product_id = ?", product.ID).Error)
	require.Equal(t, 6, item.Quantity)
}

func TestAddToCartInvalidQuantity(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")
	product := createProduct(t, db, "Milk", 50, 20, true)

	_, err := AddToCart(db, "a@example.com", AddToCartInput{ProductID: product.ID, Quantity: 0})
	requireKind(t, err, apperrors.KindInvalidQuantity)

	_, err = AddToCart(db, "a@example.com", AddToCartInput{ProductID: product.ID, Quantity: -3})
	requireKind(t, err, apperrors.KindInvalidQuantity)
}

func TestAddToCartProductNotFound(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")

	_, err := AddToCart(db, "a@example.com", AddToCartInput{ProductID: 999, Quantity: 1})
	requireKind(t, err, apperrors.KindNotFound)
}

func TestAddToCartUnavailableProduct(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")
	product := createProduct(t, db, "Seasonal Mangoes", 120, 5, false)

	_, err := AddToCart(db, "a@example.com", AddToCartInput{ProductID: product.ID, Quantity: 1})
	requireKind(t, err, apperrors.KindUnavailable)
}

func TestAddToCartInsufficientStock(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")
	product := createProduct(t, db, "Eggs", 6, 3, true)

	_, err := AddToCart(db, "a@example.com", AddToCartInput{ProductID: product.ID, Quantity: 4})
	requireKind(t, err, apperrors.KindInsufficientStock)
}

func TestUpdateQuantity(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")
	product := createProduct(t, db, "Flour", 45, 10, true)

	view, err := AddToCart(db, "a@example.com", AddToCartInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	itemID := view.Items[0].CartItemID

	view, err = UpdateQuantity(db, "a@example.com", itemID, 4)
	require.NoError(t, err)
	require.Equal(t, 4, view.Items[0].Quantity)
	requireAmount(t, 180, view.TotalAmount)
}

func TestUpdateQuantityZeroRemovesItem(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")
	product := createProduct(t, db, "Flour", 45, 10, true)

	view, err := AddToCart(db, "a@example.com", AddToCartInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	view, err = UpdateQuantity(db, "a@example.com", view.Items[0].CartItemID, 0)
	require.NoError(t, err)
	require.Empty(t, view.Items)
}

func TestUpdateQuantityRechecksStock(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")
	product := createProduct(t, db, "Flour", 45, 5, true)

	view, err := AddToCart(db, "a@example.com", AddToCartInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = UpdateQuantity(db, "a@example.com", view.Items[0].CartItemID, 6)
	requireKind(t, err, apperrors.KindInsufficientStock)
}

func TestUpdateQuantityForeignItemUnauthorized(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")
	createUser(t, db, "b@example.com")
	product := createProduct(t, db, "Flour", 45, 10, true)

	view, err := AddToCart(db, "a@example.com", AddToCartInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = UpdateQuantity(db, "b@example.com", view.Items[0].CartItemID, 1)
	requireKind(t, err, apperrors.KindUnauthorized)
}

func TestRemoveItem(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")
	product := createProduct(t, db, "Butter", 90, 10, true)

	view, err := AddToCart(db, "a@example.com", AddToCartInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	view, err = RemoveItem(db, "a@example.com", view.Items[0].CartItemID)
	require.NoError(t, err)
	require.Empty(t, view.Items)
	require.Zero(t, view.TotalItems)
}

func TestRemoveForeignItemUnauthorized(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")
	createUser(t, db, "b@example.com")
	product := createProduct(t, db, "Butter", 90, 10, true)

	view, err := AddToCart(db, "a@example.com", AddToCartInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = RemoveItem(db, "b@example.com", view.Items[0].CartItemID)
	requireKind(t, err, apperrors.KindUnauthorized)
}

func TestCartPrunesLinesForDeletedProducts(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")
	kept := createProduct(t, db, "Milk", 50, 20, true)
	doomed := createProduct(t, db, "Discontinued Tea", 80, 20, true)

	_, err := AddToCart(db, "a@example.com", AddToCartInput{ProductID: kept.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = AddToCart(db, "a@example.com", AddToCartInput{ProductID: doomed.ID, Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, db.Delete(doomed).Error)

	view, err := GetCart(db, "a@example.com")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, "Milk", view.Items[0].ProductName)
	requireAmount(t, 50, view.TotalAmount)
	require.Equal(t, 1, view.TotalItems)

	// the orphaned line is gone from the store, not just hidden
	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRemoveMissingItemNotFound(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "a@example.com")

	_, err := RemoveItem(db, "a@example.com", 42)
	requireKind(t, err, apperrors.KindNotFound)
}
