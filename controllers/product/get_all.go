package productcontroller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/models"
	"github.com/Mouss911/webnet-back/pagination"
)

// Columns clients may sort the catalog by.
var sortColumns = map[string]string{
	"created_at": "products.created_at",
	"price":      "products.price",
	"name":       "products.name",
	"stock":      "products.stock",
}

type ProductFilter struct {
	Search     string
	CategoryID uint
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	SortBy     string
	Order      string
	Page       int
}

// productFilterFromQuery parses the catalog query string.
func productFilterFromQuery(c *gin.Context) (ProductFilter, error) {
	f := ProductFilter{
		Search: strings.TrimSpace(c.Query("search")),
		SortBy: c.DefaultQuery("sort_by", "created_at"),
		Order:  strings.ToLower(c.DefaultQuery("order", "desc")),
		Page:   pagination.PageParam(c),
	}
	if v := c.Query("category_id"); v != "" {
		cid, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return f, apperr.Validation("Invalid category_id")
		}
		f.CategoryID = uint(cid)
	}
	if v := c.Query("min_price"); v != "" {
		mp, err := decimal.NewFromString(v)
		if err != nil {
			return f, apperr.Validation("Invalid min_price")
		}
		f.MinPrice = &mp
	}
	if v := c.Query("max_price"); v != "" {
		mp, err := decimal.NewFromString(v)
		if err != nil {
			return f, apperr.Validation("Invalid max_price")
		}
		f.MaxPrice = &mp
	}
	return f, nil
}

// -------- Core Logic --------

// ListProducts returns one page of the catalog with categories attached.
func ListProducts(db *gorm.DB, f ProductFilter) (*pagination.Page[models.Product], error) {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		return nil, apperr.Validation("Invalid sort_by")
	}
	order := "DESC"
	if f.Order == "asc" {
		order = "ASC"
	}

	query := db.Model(&models.Product{})
	if f.Search != "" {
		query = whereMatches(query, f.Search)
	}
	if f.CategoryID != 0 {
		query = query.Where("products.category_id = ?", f.CategoryID)
	}
	if f.MinPrice != nil {
		query = query.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("products.price <= ?", *f.MaxPrice)
	}
	query = query.Order(column + " " + order).Order("products.id")

	page, err := pagination.Find[models.Product](query, f.Page, pagination.DefaultPerPage, "Category")
	if err != nil {
		return nil, apperr.Internal("Failed to fetch products", err)
	}
	return page, nil
}

// whereMatches filters on a case-insensitive substring of name or description.
func whereMatches(query *gorm.DB, term string) *gorm.DB {
	pattern := "%" + strings.ToLower(term) + "%"
	return query.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", pattern, pattern)
}

// -------- Handlers --------

// GET /api/products
func GetProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := productFilterFromQuery(c)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		page, err := ListProducts(db.WithContext(c.Request.Context()), filter)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}
