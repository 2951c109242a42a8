package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	cartControllers "github.com/freshkart-dev/grocery-api/controllers/cart"
	"github.com/freshkart-dev/grocery-api/middleware"
)

func SetupCartRoutes(r *gin.Engine, db *gorm.DB) {
	cart := r.Group("/cart", middleware.ValidateToken)
	{
		cart.GET("", cartControllers.GetCartHandler(db))
		cart.POST("/add", cartControllers.AddToCartHandler(db))
		cart.PUT("/update/:cartItemId", cartControllers.UpdateQuantityHandler(db))
		cart.DELETE("/remove/:cartItemId", cartControllers.RemoveItemHandler(db))
	}
}
