// Package pagination pages GORM queries into the envelope the API returns for
// every list endpoint.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const DefaultPerPage = 10

type Page[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

// PageParam reads ?page=, falling back to 1 for missing or invalid values.
func PageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Find counts query and loads one page of it with the named relations
// preloaded. query must already carry its filters and ordering.
func Find[T any](query *gorm.DB, page, perPage int, preloads ...string) (*Page[T], error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Model(new(T)).Count(&total).Error; err != nil {
		return nil, err
	}

	q := query
	for _, rel := range preloads {
		q = q.Preload(rel)
	}
	data := []T{}
	if err := q.Offset((page - 1) * perPage).Limit(perPage).Find(&data).Error; err != nil {
		return nil, err
	}

	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}
	return &Page[T]{
		Data:        data,
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    lastPage,
	}, nil
}
