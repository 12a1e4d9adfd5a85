package productcontroller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/models"
)

type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required,max=255"`
	Description string           `json:"description" binding:"required"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Stock       int              `json:"stock"`
	CategoryID  uint             `json:"category_id" binding:"required"`
	Image       string           `json:"image"`
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperr.Validation("The price must be at least 0.")
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return apperr.Validation("The stock must be at least 0.")
	}
	return nil
}

func validateCategory(db *gorm.DB, categoryID uint) error {
	var count int64
	if err := db.Model(&models.Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return apperr.Internal("Failed to validate category", err)
	}
	if count == 0 {
		return apperr.Validation("The selected category id is invalid.")
	}
	return nil
}

// -------- Core Logic --------

func CreateProduct(db *gorm.DB, req CreateProductRequest) (*models.Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("The name field is required.")
	}
	if req.Price == nil {
		return nil, apperr.Validation("The price field is required.")
	}
	if err := validatePrice(*req.Price); err != nil {
		return nil, err
	}
	if err := validateStock(req.Stock); err != nil {
		return nil, err
	}
	if err := validateCategory(db, req.CategoryID); err != nil {
		return nil, err
	}

	product := models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price.Round(2),
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		Image:       req.Image,
	}
	if err := db.Create(&product).Error; err != nil {
		return nil, apperr.Internal("Failed to create product", err)
	}
	return GetProduct(db, product.ID)
}

// -------- Handlers --------

// POST /api/products
func CreateProductHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}
		product, err := CreateProduct(db.WithContext(c.Request.Context()), req)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}
