package orderControllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshkart-dev/grocery-api/apperrors"
	cartControllers "github.com/freshkart-dev/grocery-api/controllers/cart"
	"github.com/freshkart-dev/grocery-api/middleware"
	"github.com/freshkart-dev/grocery-api/models"
)

// Delivery policy: orders at or above the threshold ship free, everything
// else pays the flat fee.
var (
	freeDeliveryThreshold = decimal.NewFromInt(500)
	deliveryFee           = decimal.NewFromInt(40)
)

type PlaceOrderRequest struct {
	AddressID       *uint                `json:"address_id"`
	DeliveryAddress string               `json:"delivery_address"`
	DeliveryNote    string               `json:"delivery_note"`
	PaymentMethod   models.PaymentMethod `json:"payment_method" binding:"required,oneof=CASH_ON_DELIVERY ONLINE"`
}

type OrderItemView struct {
	OrderItemID uint            `json:"order_item_id"`
	ProductID   *uint           `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductUnit string          `json:"product_unit"`
	ImageURL    string          `json:"image_url"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderView flattens the order and its payment into the shape clients render.
type OrderView struct {
	OrderID         uint                 `json:"order_id"`
	OrderRef        string               `json:"order_ref"`
	Items           []OrderItemView      `json:"items"`
	Status          models.OrderStatus   `json:"status"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	DeliveryCharge  decimal.Decimal      `json:"delivery_charge"`
	FinalAmount     decimal.Decimal      `json:"final_amount"`
	DeliveryAddress string               `json:"delivery_address"`
	DeliveryNote    string               `json:"delivery_note"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	PaymentStatus   models.PaymentStatus `json:"payment_status"`
	TransactionID   string               `json:"transaction_id"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// -------- Helpers --------

func mapOrderStatus(status string) (models.OrderStatus, error) {
	mapped := models.OrderStatus(strings.ToUpper(status))
	if !mapped.Valid() {
		return "", errors.New("invalid order status")
	}
	return mapped, nil
}

func generateOrderRef() string {
	return time.Now().Format("20060102150405") + "-" + uuid.NewString()
}

// resolveDeliveryAddress prefers a saved address id over free text.
func resolveDeliveryAddress(tx *gorm.DB, req PlaceOrderRequest) (string, error) {
	if req.AddressID != nil {
		var address models.Address
		if err := tx.First(&address, "address_id = ?", *req.AddressID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", apperrors.NotFound("address")
			}
			return "", err
		}
		return address.Format(), nil
	}
	if req.DeliveryAddress != "" {
		return req.DeliveryAddress, nil
	}
	return "", apperrors.MissingAddress()
}

// decrementStock atomically takes quantity off the product's stock, failing
// when fewer than quantity units remain. The conditional update is what keeps
// two concurrent placements from overselling: both may read the same count,
// but only decrements that still satisfy stock_quantity >= quantity apply.
func decrementStock(tx *gorm.DB, productID uint, quantity int, productName string) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, quantity).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.InsufficientStock(productName)
	}
	return nil
}

// -------- Core Logic --------

// PlaceOrder converts the caller's cart into an order, a pending payment and
// the matching stock decrements, all inside one transaction. Any failure rolls
// the whole placement back.
func PlaceOrder(db *gorm.DB, email string, req PlaceOrderRequest) (*OrderView, error) {
	user, err := models.FindUserByEmail(db, email)
	if err != nil {
		return nil, err
	}

	var orderID uint
	err = db.Transaction(func(tx *gorm.DB) error {
		cart, err := cartControllers.GetOrCreateCart(tx, user.ID)
		if err != nil {
			return err
		}

		var cartItems []models.CartItem
		if err := tx.Where("cart_id = ?", cart.CartID).Order("added_at").
			Find(&cartItems).Error; err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return apperrors.EmptyCart()
		}

		deliveryAddress, err := resolveDeliveryAddress(tx, req)
		if err != nil {
			return err
		}

		order := models.Order{
			OrderRef:        generateOrderRef(),
			UserID:          user.ID,
			Status:          models.OrderStatusPending,
			DeliveryAddress: deliveryAddress,
			DeliveryNote:    req.DeliveryNote,
			DeliveryCharge:  decimal.Zero,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		orderID = order.OrderID

		totalAmount := decimal.Zero
		for _, item := range cartItems {
			var product models.Product
			if err := tx.First(&product, "id = ?", item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NotFound("product")
				}
				return err
			}

			if err := decrementStock(tx, product.ID, item.Quantity, product.Name); err != nil {
				return err
			}

			subtotal := item.PriceAtTime.Mul(decimal.NewFromInt(int64(item.Quantity)))
			totalAmount = totalAmount.Add(subtotal)

			productID := product.ID
			orderItem := models.OrderItem{
				OrderID:     order.OrderID,
				ProductID:   &productID,
				ProductName: product.Name,
				ProductUnit: product.Unit,
				Quantity:    item.Quantity,
				PriceAtTime: item.PriceAtTime,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return err
			}
		}

		deliveryCharge := deliveryFee
		if totalAmount.GreaterThanOrEqual(freeDeliveryThreshold) {
			deliveryCharge = decimal.Zero
		}
		finalAmount := totalAmount.Add(deliveryCharge)

		order.TotalAmount = totalAmount
		order.DeliveryCharge = deliveryCharge
		order.FinalAmount = finalAmount

		// COD needs no external settlement, so the order confirms immediately.
		// The payment row still starts PENDING and settles on delivery.
		if req.PaymentMethod == models.PaymentMethodCOD {
			order.Status = models.OrderStatusConfirmed
		}
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		payment := models.Payment{
			OrderID: order.OrderID,
			Method:  req.PaymentMethod,
			Status:  models.PaymentStatusPending,
			Amount:  finalAmount,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		return tx.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	view, err := BuildOrderView(db, orderID)
	if err != nil {
		return nil, err
	}
	broadcastOrderEvent("order_placed", view)
	return view, nil
}

// GetMyOrders returns the caller's orders, newest first.
func GetMyOrders(db *gorm.DB, email string) ([]*OrderView, error) {
	user, err := models.FindUserByEmail(db, email)
	if err != nil {
		return nil, err
	}
	var orders []models.Order
	if err := db.Preload("Items").Preload("Payment").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return buildOrderViews(db, orders)
}

// GetOrderByID returns one order, refusing callers that do not own it.
func GetOrderByID(db *gorm.DB, email string, orderID uint) (*OrderView, error) {
	user, err := models.FindUserByEmail(db, email)
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := db.Preload("Items").Preload("Payment").
		First(&order, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order")
		}
		return nil, err
	}
	if order.UserID != user.ID {
		return nil, apperrors.Unauthorized("order does not belong to you")
	}
	return buildView(db, &order)
}

// GetAllOrders is the admin view of every order, newest first.
func GetAllOrders(db *gorm.DB) ([]*OrderView, error) {
	var orders []models.Order
	if err := db.Preload("Items").Preload("Payment").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return buildOrderViews(db, orders)
}

// UpdateOrderStatus applies an admin status change, constrained to the legal
// transition graph.
func UpdateOrderStatus(db *gorm.DB, orderID uint, status models.OrderStatus) (*OrderView, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "order_id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("order")
			}
			return err
		}
		if !order.Status.CanTransitionTo(status) {
			return apperrors.InvalidTransition(string(order.Status), string(status))
		}
		order.Status = status
		return tx.Save(&order).Error
	})
	if err != nil {
		return nil, err
	}

	view, err := BuildOrderView(db, orderID)
	if err != nil {
		return nil, err
	}
	broadcastOrderEvent("order_status_changed", view)
	return view, nil
}

// BuildOrderView loads an order with its items and payment and flattens it.
func BuildOrderView(db *gorm.DB, orderID uint) (*OrderView, error) {
	var order models.Order
	if err := db.Preload("Items").Preload("Payment").
		First(&order, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order")
		}
		return nil, err
	}
	return buildView(db, &order)
}

func buildOrderViews(db *gorm.DB, orders []models.Order) ([]*OrderView, error) {
	views := make([]*OrderView, 0, len(orders))
	for i := range orders {
		view, err := buildView(db, &orders[i])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func buildView(db *gorm.DB, order *models.Order) (*OrderView, error) {
	// Image URLs are the one display field not snapshotted on the item.
	productIDs := make([]uint, 0, len(order.Items))
	for _, item := range order.Items {
		if item.ProductID != nil {
			productIDs = append(productIDs, *item.ProductID)
		}
	}
	images := make(map[uint]string, len(productIDs))
	if len(productIDs) > 0 {
		var products []models.Product
		if err := db.Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return nil, err
		}
		for _, p := range products {
			images[p.ID] = p.ImageURL
		}
	}

	items := make([]OrderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		var imageURL string
		if item.ProductID != nil {
			imageURL = images[*item.ProductID]
		}
		items = append(items, OrderItemView{
			OrderItemID: item.OrderItemID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductUnit: item.ProductUnit,
			ImageURL:    imageURL,
			Quantity:    item.Quantity,
			PriceAtTime: item.PriceAtTime,
			Subtotal:    item.PriceAtTime.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}

	view := &OrderView{
		OrderID:         order.OrderID,
		OrderRef:        order.OrderRef,
		Items:           items,
		Status:          order.Status,
		TotalAmount:     order.TotalAmount,
		DeliveryCharge:  order.DeliveryCharge,
		FinalAmount:     order.FinalAmount,
		DeliveryAddress: order.DeliveryAddress,
		DeliveryNote:    order.DeliveryNote,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	if order.Payment != nil {
		view.PaymentMethod = order.Payment.Method
		view.PaymentStatus = order.Payment.Status
		view.TransactionID = order.Payment.TransactionID
	}
	return view, nil
}

// -------- Handlers --------

func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.Status(err), gin.H{"error": apperrors.Message(err)})
}

func parseOrderID(c *gin.Context) (uint, bool) {
	orderID, err := strconv.ParseUint(c.Param("orderId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return 0, false
	}
	return uint(orderID), true
}

// POST /orders/place
func PlaceOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		view, err := PlaceOrder(db, middleware.CallerEmail(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, view)
	}
}

// GET /orders/my-orders
func GetMyOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := GetMyOrders(db, middleware.CallerEmail(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

// GET /orders/:orderId
func GetOrderByIDHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}
		view, err := GetOrderByID(db, middleware.CallerEmail(c), orderID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// GET /orders/admin/all
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := GetAllOrders(db)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

// PUT /orders/admin/update-status/:orderId?status=SHIPPED
func UpdateOrderStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}
		status, err := mapOrderStatus(c.Query("status"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		view, err := UpdateOrderStatus(db, orderID, status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}
