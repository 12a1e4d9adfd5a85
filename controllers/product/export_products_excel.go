package productcontroller

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/models"
)

// Column layout shared by export and import.
var excelHeaders = []string{
	"ID", "Name", "Description", "Price", "Stock", "Image", "CategoryID", "CreatedAt", "UpdatedAt",
}

// ExportProducts writes every live product to w as an xlsx workbook.
func ExportProducts(db *gorm.DB, w io.Writer) error {
	var products []models.Product
	if err := db.Order("id").Find(&products).Error; err != nil {
		return apperr.Internal("Failed to fetch products", err)
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return apperr.Internal("Failed to create Excel sheet", err)
	}

	// Header row
	headerRow := sheet.AddRow()
	for _, h := range excelHeaders {
		headerRow.AddCell().SetValue(h)
	}

	// Data rows
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.Price.StringFixed(2))
		row.AddCell().SetValue(p.Stock)
		row.AddCell().SetValue(p.Image)
		row.AddCell().SetValue(p.CategoryID)
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return apperr.Internal("Failed to write Excel file", err)
	}
	return nil
}

// GET /api/admin/products/export-excel
func ExportProductsToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Set response headers for download
		c.Header("Content-Disposition", "attachment; filename=products.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := ExportProducts(db.WithContext(c.Request.Context()), c.Writer); err != nil {
			apperr.Respond(c, err)
			return
		}
	}
}
