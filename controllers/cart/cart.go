package cartControllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshkart-dev/grocery-api/apperrors"
	"github.com/freshkart-dev/grocery-api/middleware"
	"github.com/freshkart-dev/grocery-api/models"
)

type AddToCartInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type CartItemView struct {
	CartItemID  uint            `json:"cart_item_id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductUnit string          `json:"product_unit"`
	ImageURL    string          `json:"image_url"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type CartView struct {
	CartID      uint            `json:"cart_id"`
	Items       []CartItemView  `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalItems  int             `json:"total_items"`
}

// -------- Core Logic --------

// GetOrCreateCart returns the user's cart, creating an empty one on first
// access. Exposed for the order controller, which resolves the cart inside
// its placement transaction.
func GetOrCreateCart(db *gorm.DB, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := db.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID}
		if err := db.Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetCart returns the computed cart view for the caller.
func GetCart(db *gorm.DB, email string) (*CartView, error) {
	user, err := models.FindUserByEmail(db, email)
	if err != nil {
		return nil, err
	}
	cart, err := GetOrCreateCart(db, user.ID)
	if err != nil {
		return nil, err
	}
	return BuildCartView(db, cart.CartID)
}

// AddToCart validates the product and either merges into an existing line
// (summing quantities, keeping the original price snapshot) or creates a new
// one priced at the current catalog price.
func AddToCart(db *gorm.DB, email string, input AddToCartInput) (*CartView, error) {
	user, err := models.FindUserByEmail(db, email)
	if err != nil {
		return nil, err
	}
	if input.Quantity < 1 {
		return nil, apperrors.InvalidQuantity("quantity must be at least 1")
	}

	var cartID uint
	err = db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, "id = ?", input.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("product")
			}
			return err
		}
		if !product.IsAvailable {
			return apperrors.Unavailable(product.Name)
		}
		if product.StockQuantity < input.Quantity {
			return apperrors.InsufficientStock(product.Name)
		}

		cart, err := GetOrCreateCart(tx, user.ID)
		if err != nil {
			return err
		}
		cartID = cart.CartID

		var item models.CartItem
		err = tx.Where("cart_id = ? AND product_id = ?", cart.CartID, product.ID).
			First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			item = models.CartItem{
				CartID:      cart.CartID,
				ProductID:   product.ID,
				Quantity:    input.Quantity,
				PriceAtTime: product.Price,
				AddedAt:     time.Now(),
			}
			return tx.Create(&item).Error
		}
		if err != nil {
			return err
		}

		// Merge: single atomic increment, so two concurrent adds of the same
		// product both apply instead of the read-modify-write losing one.
		// The price stays snapshotted at first add.
		return tx.Model(&item).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", input.Quantity)).Error
	})
	if err != nil {
		return nil, err
	}
	return BuildCartView(db, cartID)
}

// UpdateQuantity sets a cart line's quantity; zero or less removes the line.
func UpdateQuantity(db *gorm.DB, email string, cartItemID uint, quantity int) (*CartView, error) {
	user, err := models.FindUserByEmail(db, email)
	if err != nil {
		return nil, err
	}

	var cartID uint
	err = db.Transaction(func(tx *gorm.DB) error {
		cart, err := GetOrCreateCart(tx, user.ID)
		if err != nil {
			return err
		}
		cartID = cart.CartID

		var item models.CartItem
		if err := tx.First(&item, "cart_item_id = ?", cartItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("cart item")
			}
			return err
		}
		if item.CartID != cart.CartID {
			return apperrors.Unauthorized("cart item does not belong to you")
		}

		if quantity <= 0 {
			return tx.Delete(&item).Error
		}

		var product models.Product
		if err := tx.First(&product, "id = ?", item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("product")
			}
			return err
		}
		if product.StockQuantity < quantity {
			return apperrors.InsufficientStock(product.Name)
		}

		item.Quantity = quantity
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return BuildCartView(db, cartID)
}

// RemoveItem deletes a cart line after checking ownership.
func RemoveItem(db *gorm.DB, email string, cartItemID uint) (*CartView, error) {
	user, err := models.FindUserByEmail(db, email)
	if err != nil {
		return nil, err
	}

	var cartID uint
	err = db.Transaction(func(tx *gorm.DB) error {
		cart, err := GetOrCreateCart(tx, user.ID)
		if err != nil {
			return err
		}
		cartID = cart.CartID

		var item models.CartItem
		if err := tx.First(&item, "cart_item_id = ?", cartItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("cart item")
			}
			return err
		}
		if item.CartID != cart.CartID {
			return apperrors.Unauthorized("cart item does not belong to you")
		}
		return tx.Delete(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return BuildCartView(db, cartID)
}

// BuildCartView joins cart lines with the current catalog rows for display
// fields. Price and subtotal come from the add-time snapshot, not the catalog.
func BuildCartView(db *gorm.DB, cartID uint) (*CartView, error) {
	var items []models.CartItem
	if err := db.Where("cart_id = ?", cartID).Order("added_at").Find(&items).Error; err != nil {
		return nil, err
	}

	productIDs := make([]uint, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products := make(map[uint]models.Product, len(productIDs))
	if len(productIDs) > 0 {
		var rows []models.Product
		if err := db.Where("id IN ?", productIDs).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, p := range rows {
			products[p.ID] = p
		}
	}

	// Lines whose product has been deleted from the catalog are pruned
	// rather than rendered blank; they could never be checked out anyway.
	orphans := make([]uint, 0)
	for _, item := range items {
		if _, ok := products[item.ProductID]; !ok {
			orphans = append(orphans, item.CartItemID)
		}
	}
	if len(orphans) > 0 {
		if err := db.Where("cart_item_id IN ?", orphans).
			Delete(&models.CartItem{}).Error; err != nil {
			return nil, err
		}
	}

	view := &CartView{
		CartID:      cartID,
		Items:       make([]CartItemView, 0, len(items)),
		TotalAmount: decimal.Zero,
	}
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		subtotal := item.PriceAtTime.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Items = append(view.Items, CartItemView{
			CartItemID:  item.CartItemID,
			ProductID:   item.ProductID,
			ProductName: product.Name,
			ProductUnit: product.Unit,
			ImageURL:    product.ImageURL,
			Quantity:    item.Quantity,
			PriceAtTime: item.PriceAtTime,
			Subtotal:    subtotal,
		})
		view.TotalAmount = view.TotalAmount.Add(subtotal)
		view.TotalItems += item.Quantity
	}
	return view, nil
}

// -------- Handlers --------

func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.Status(err), gin.H{"error": apperrors.Message(err)})
}

// GET /cart
func GetCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := GetCart(db, middleware.CallerEmail(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// POST /cart/add
func AddToCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input AddToCartInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		view, err := AddToCart(db, middleware.CallerEmail(c), input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// PUT /cart/update/:cartItemId?quantity=N
func UpdateQuantityHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartItemID, err := strconv.ParseUint(c.Param("cartItemId"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart item id"})
			return
		}
		quantity, err := strconv.Atoi(c.Query("quantity"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
			return
		}
		view, err := UpdateQuantity(db, middleware.CallerEmail(c), uint(cartItemID), quantity)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// DELETE /cart/remove/:cartItemId
func RemoveItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartItemID, err := strconv.ParseUint(c.Param("cartItemId"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart item id"})
			return
		}
		view, err := RemoveItem(db, middleware.CallerEmail(c), uint(cartItemID))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}
