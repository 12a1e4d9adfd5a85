package productcontroller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/database"
	"github.com/Mouss911/webnet-back/models"
)

func idParam(c *gin.Context, name, what string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, apperr.NotFound(what)
	}
	return uint(id), nil
}

// -------- Core Logic --------

func GetProduct(db *gorm.DB, id uint) (*models.Product, error) {
	var product models.Product
	if err := db.Preload("Category").First(&product, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Product")
		}
		return nil, apperr.Internal("Failed to retrieve product", err)
	}
	return &product, nil
}

// ProductsByCategory lists a category's products, newest first.
func ProductsByCategory(db *gorm.DB, categoryID uint) ([]models.Product, error) {
	if _, err := findCategory(db, categoryID); err != nil {
		return nil, err
	}
	products := []models.Product{}
	err := db.Preload("Category").
		Where("category_id = ?", categoryID).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, apperr.Internal("Failed to fetch products", err)
	}
	return products, nil
}

// SearchProducts matches term against product names and descriptions.
func SearchProducts(db *gorm.DB, term string) ([]models.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperr.Validation("Search query is required")
	}
	products := []models.Product{}
	err := whereMatches(db.Model(&models.Product{}), term).
		Preload("Category").
		Order("products.name").
		Find(&products).Error
	if err != nil {
		return nil, apperr.Internal("Failed to search products", err)
	}
	return products, nil
}

// -------- Handlers --------

// GET /api/products/:id
func GetProductByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Product")
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		product, err := GetProduct(db.WithContext(c.Request.Context()), id)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// GET /api/products/category/:category
func GetProductsByCategory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "category", "Category")
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		products, err := ProductsByCategory(db.WithContext(c.Request.Context()), id)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GET /api/products/search/:query
func SearchProductsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := SearchProducts(db.WithContext(c.Request.Context()), c.Param("query"))
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}
