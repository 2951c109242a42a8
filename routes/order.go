package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/freshkart-dev/grocery-api/controllers/order"
	"github.com/freshkart-dev/grocery-api/middleware"
)

func SetupOrderRoutes(r *gin.Engine, db *gorm.DB) {
	orders := r.Group("/orders", middleware.ValidateToken)
	{
		orders.POST("/place", orderControllers.PlaceOrderHandler(db))
		orders.GET("/my-orders", orderControllers.GetMyOrdersHandler(db))

		admin := orders.Group("/admin", middleware.RequireAdmin)
		{
			admin.GET("/all", orderControllers.GetAllOrdersHandler(db))
			admin.GET("/export", orderControllers.ExportOrdersToExcel(db))
			admin.PUT("/update-status/:orderId", orderControllers.UpdateOrderStatusHandler(db))

			// websocket feed of placed orders and status changes
			admin.GET("/ws", orderControllers.OrderWebSocketHandler)
		}

		orders.GET("/:orderId", orderControllers.GetOrderByIDHandler(db))
	}
}
