package productcontroller

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/database"
	"github.com/Mouss911/webnet-back/models"
)

type ImportResult struct {
	Created int `json:"created_count"`
	Updated int `json:"updated_count"`
	Skipped int `json:"skipped_count"`
}

// ImportProducts reads the first sheet of an xlsx workbook laid out like
// ExportProducts output. Rows with a known ID update that product; other rows
// create one. Invalid rows are skipped and counted; a database error rolls
// back the whole import.
func ImportProducts(db *gorm.DB, r io.ReaderAt, size int64) (*ImportResult, error) {
	xlFile, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return nil, apperr.Validation("Failed to parse Excel file")
	}
	if len(xlFile.Sheets) == 0 || xlFile.Sheets[0].MaxRow < 2 {
		return nil, apperr.Validation("Excel file is empty or missing header row")
	}

	sheet := xlFile.Sheets[0]
	result := &ImportResult{}

	// Database failures abort the whole import; only bad rows are skipped.
	err = db.Transaction(func(tx *gorm.DB) error {
		for i := 1; i < sheet.MaxRow && i < len(sheet.Rows); i++ {
			row := sheet.Rows[i]
			get := func(index int) string {
				if row != nil && index < len(row.Cells) {
					return strings.TrimSpace(row.Cells[index].String())
				}
				return ""
			}

			name := get(1)
			price, errPrice := decimal.NewFromString(get(3))
			stock, errStock := strconv.Atoi(get(4))
			categoryID, errCat := strconv.ParseUint(get(6), 10, 64)
			if name == "" || errPrice != nil || price.IsNegative() || errStock != nil || stock < 0 || errCat != nil {
				result.Skipped++
				continue
			}
			if err := validateCategory(tx, uint(categoryID)); err != nil {
				if errors.Is(err, apperr.ErrValidation) {
					result.Skipped++
					continue
				}
				return err
			}

			fields := models.Product{
				Name:        name,
				Description: get(2),
				Price:       price.Round(2),
				Stock:       stock,
				Image:       get(5),
				CategoryID:  uint(categoryID),
			}

			if id, err := strconv.ParseUint(get(0), 10, 64); err == nil && id > 0 {
				var existing models.Product
				err := tx.First(&existing, id).Error
				switch {
				case err == nil:
					err := tx.Model(&models.Product{ID: existing.ID}).Updates(map[string]interface{}{
						"name":        fields.Name,
						"description": fields.Description,
						"price":       fields.Price,
						"stock":       fields.Stock,
						"image":       fields.Image,
						"category_id": fields.CategoryID,
					}).Error
					if err != nil {
						return apperr.Internal("Failed to update product", err)
					}
					result.Updated++
					continue
				case !database.IsNotFound(err):
					return apperr.Internal("Failed to fetch product", err)
				}
			}

			// Insert new product
			if err := tx.Create(&fields).Error; err != nil {
				return apperr.Internal("Failed to create product", err)
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// POST /api/admin/products/import-excel
func ImportProductsFromExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		excelFileHeader, err := c.FormFile("file")
		if err != nil {
			apperr.Respond(c, apperr.Validation("Excel file is required"))
			return
		}

		file, err := excelFileHeader.Open()
		if err != nil {
			apperr.Respond(c, apperr.Internal("Failed to open Excel file", err))
			return
		}
		defer file.Close()

		result, err := ImportProducts(db.WithContext(c.Request.Context()), file, excelFileHeader.Size)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":       "Import completed",
			"created_count": result.Created,
			"updated_count": result.Updated,
			"skipped_count": result.Skipped,
		})
	}
}
