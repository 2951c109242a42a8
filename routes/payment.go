package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	paymentControllers "github.com/freshkart-dev/grocery-api/controllers/payment"
	"github.com/freshkart-dev/grocery-api/middleware"
)

func SetupPaymentRoutes(r *gin.Engine, db *gorm.DB, cfg Config) {
	payments := r.Group("/payments", middleware.ValidateToken)
	{
		payments.POST("/confirm", paymentControllers.ConfirmPaymentHandler(db))
		payments.POST("/fail/:orderId", paymentControllers.FailPaymentHandler(db, cfg.RestoreStockOnPaymentFailure))
	}
}
