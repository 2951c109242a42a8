package orderControllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/freshkart-dev/grocery-api/models"
)

// GET /orders/admin/export
func ExportOrdersToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.Preload("Items").Preload("Payment").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Orders")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		headers := []string{
			"OrderID", "OrderRef", "UserID", "Status", "Items",
			"TotalAmount", "DeliveryCharge", "FinalAmount",
			"PaymentMethod", "PaymentStatus", "TransactionID",
			"DeliveryAddress", "CreatedAt",
		}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		for _, o := range orders {
			row := sheet.AddRow()

			row.AddCell().SetValue(o.OrderID)
			row.AddCell().SetValue(o.OrderRef)
			row.AddCell().SetValue(o.UserID)
			row.AddCell().SetValue(string(o.Status))
			row.AddCell().SetValue(strconv.Itoa(len(o.Items)))
			row.AddCell().SetValue(o.TotalAmount.String())
			row.AddCell().SetValue(o.DeliveryCharge.String())
			row.AddCell().SetValue(o.FinalAmount.String())
			if o.Payment != nil {
				row.AddCell().SetValue(string(o.Payment.Method))
				row.AddCell().SetValue(string(o.Payment.Status))
				row.AddCell().SetValue(o.Payment.TransactionID)
			} else {
				row.AddCell().SetValue("")
				row.AddCell().SetValue("")
				row.AddCell().SetValue("")
			}
			row.AddCell().SetValue(o.DeliveryAddress)
			row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
		}

		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}
