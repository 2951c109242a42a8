package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Config carries the settings route handlers need beyond the DB handle.
type Config struct {
	// RestoreStockOnPaymentFailure re-increments inventory when a payment
	// fails. Off by default: the upstream system treats placement as a
	// stock reservation.
	RestoreStockOnPaymentFailure bool
}

// SetupRoutes wires up the cart, order and payment route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg Config) {
	SetupCartRoutes(r, db)
	SetupOrderRoutes(r, db)
	SetupPaymentRoutes(r, db, cfg)
}
