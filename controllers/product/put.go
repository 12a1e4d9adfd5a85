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

// UpdateProductRequest holds the fields to change; nil fields are left alone.
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	CategoryID  *uint            `json:"category_id"`
	Image       *string          `json:"image"`
}

// -------- Core Logic --------

func UpdateProduct(db *gorm.DB, id uint, req UpdateProductRequest) (*models.Product, error) {
	product, err := GetProduct(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("The name field must not be empty.")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return nil, err
		}
		updates["price"] = req.Price.Round(2)
	}
	if req.Stock != nil {
		if err := validateStock(*req.Stock); err != nil {
			return nil, err
		}
		updates["stock"] = *req.Stock
	}
	if req.CategoryID != nil {
		if err := validateCategory(db, *req.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}

	if len(updates) > 0 {
		if err := db.Model(&models.Product{ID: product.ID}).Updates(updates).Error; err != nil {
			return nil, apperr.Internal("Failed to update product", err)
		}
	}
	return GetProduct(db, id)
}

// -------- Handlers --------

// PUT /api/products/:id
func UpdateProductHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Product")
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		var req UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}
		product, err := UpdateProduct(db.WithContext(c.Request.Context()), id, req)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
