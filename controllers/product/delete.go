package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/models"
)

// DeleteProduct soft-deletes a product. Cart and order lines that reference it
// keep resolving it.
func DeleteProduct(db *gorm.DB, id uint) error {
	res := db.Delete(&models.Product{}, id)
	if res.Error != nil {
		return apperr.Internal("Failed to delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Product")
	}
	return nil
}

// DELETE /api/products/:id
func DeleteProductHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id", "Product")
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if err := DeleteProduct(db.WithContext(c.Request.Context()), id); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
