package productcontroller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/database"
	"github.com/Mouss911/webnet-back/models"
)

type CategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=255"`
	Description *string `json:"description"`
}

func findCategory(db *gorm.DB, id uint) (*models.Category, error) {
	var category models.Category
	if err := db.First(&category, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Category")
		}
		return nil, apperr.Internal("Failed to fetch category", err)
	}
	return &category, nil
}

// -------- Core Logic --------

func ListCategories(db *gorm.DB) ([]models.Category, error) {
	categories := []models.Category{}
	err := db.
		Preload("Products", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Order("name").
		Find(&categories).Error
	if err != nil {
		return nil, apperr.Internal("Failed to fetch categories", err)
	}
	return categories, nil
}

// GetCategory returns a category with its products.
func GetCategory(db *gorm.DB, id uint) (*models.Category, error) {
	var category models.Category
	err := db.Preload("Products", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).First(&category, id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Category")
		}
		return nil, apperr.Internal("Failed to fetch category", err)
	}
	return &category, nil
}

func CreateCategory(db *gorm.DB, req CategoryRequest) (*models.Category, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, apperr.Validation("The name field is required.")
	}
	category := models.Category{Name: strings.TrimSpace(*req.Name)}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if err := db.Create(&category).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("The name has already been taken.")
		}
		return nil, apperr.Internal("Failed to create category", err)
	}
	return &category, nil
}

func UpdateCategory(db *gorm.DB, id uint, req CategoryRequest) (*models.Category, error) {
	category, err := findCategory(db, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("The name field must not be empty.")
		}
		category.Name = name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if err := db.Save(category).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("The name has already been taken.")
		}
		return nil, apperr.Internal("Failed to update category", err)
	}
	return category, nil
}

// DeleteCategory removes an empty category. Categories still referenced by
// any product, deleted ones included, are refused.
func DeleteCategory(db *gorm.DB, id uint) error {
	if _, err := findCategory(db, id); err != nil {
		return err
	}
	var products int64
	if err := db.Unscoped().Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
		return apperr.Internal("Failed to delete category", err)
	}
	if products > 0 {
		return apperr.Conflict("Category still has products")
	}
	if err := db.Delete(&models.Category{}, id).Error; err != nil {
		return apperr.Internal("Failed to delete category", err)
	}
	return nil
}

// -------- Handlers --------

// GET /api/categories
func GetAllCategories(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := ListCategories(db.WithContext(c.Request.Context()))
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// GET /api/categories/:id
func GetCategoryByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Category")
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		category, err := GetCategory(db.WithContext(c.Request.Context()), id)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

// POST /api/categories
func CreateCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}
		category, err := CreateCategory(db.WithContext(c.Request.Context()), req)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

// PUT /api/categories/:id
func UpdateCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Category")
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}
		category, err := UpdateCategory(db.WithContext(c.Request.Context()), id, req)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

// DELETE /api/categories/:id
func DeleteCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Category")
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if err := DeleteCategory(db.WithContext(c.Request.Context()), id); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
