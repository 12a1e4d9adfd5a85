package userControllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/auth"
	"github.com/Mouss911/webnet-back/database"
	"github.com/Mouss911/webnet-back/models"
)

type UpdateUserInput struct {
	Name    *string         `json:"name" binding:"omitempty,max=255"`
	Email   *string         `json:"email" binding:"omitempty,email,max=255"`
	Phone   *string         `json:"phone"`
	Address *models.Address `json:"address"`
}

type ChangePasswordInput struct {
	CurrentPassword         string `json:"current_password" binding:"required"`
	NewPassword             string `json:"new_password" binding:"required"`
	NewPasswordConfirmation string `json:"new_password_confirmation"`
}

// -------- Core Logic --------

func GetProfile(db *gorm.DB, actor auth.Actor) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", actor.UserID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("User")
		}
		return nil, apperr.Internal("Failed to fetch user", err)
	}
	return &user, nil
}

// UpdateProfile changes the fields present in input. Role and password are
// not editable here.
func UpdateProfile(db *gorm.DB, actor auth.Actor, input UpdateUserInput) (*models.User, error) {
	user, err := GetProfile(db, actor)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperr.Validation("The name field must not be empty.")
		}
		updates["name"] = name
	}
	if input.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		updates["country"] = input.Address.Country
		updates["street"] = input.Address.Street
		updates["city"] = input.Address.City
		updates["state"] = input.Address.State
		updates["postal_code"] = input.Address.PostalCode
	}

	if len(updates) > 0 {
		if err := db.Model(user).Updates(updates).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return nil, apperr.Conflict("The email has already been taken.")
			}
			return nil, apperr.Internal("Failed to update user", err)
		}
	}
	return GetProfile(db, actor)
}

// ChangePassword replaces the actor's password after checking the current one.
func ChangePassword(db *gorm.DB, actor auth.Actor, input ChangePasswordInput) error {
	user, err := GetProfile(db, actor)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, input.CurrentPassword) {
		return apperr.Validation("The current password is incorrect.")
	}
	if len(input.NewPassword) < auth.MinPasswordLen {
		return apperr.Validation("The new password must be at least %d characters.", auth.MinPasswordLen)
	}
	if input.NewPassword != input.NewPasswordConfirmation {
		return apperr.Validation("The new password confirmation does not match.")
	}

	hash, err := auth.HashPassword(input.NewPassword)
	if err != nil {
		return apperr.Internal("Failed to change password", err)
	}
	if err := db.Model(user).Update("password_hash", hash).Error; err != nil {
		return apperr.Internal("Failed to change password", err)
	}
	return nil
}

// -------- Handlers --------

// GET /api/profile
func GetUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.CurrentActor(c)
		if !ok {
			return
		}
		user, err := GetProfile(db.WithContext(c.Request.Context()), actor)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  true,
			"message": "Profile information",
			"data":    user,
		})
	}
}

// PUT /api/profile/update
func UpdateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.CurrentActor(c)
		if !ok {
			return
		}
		var input UpdateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}
		user, err := UpdateProfile(db.WithContext(c.Request.Context()), actor, input)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  true,
			"message": "Profile updated",
			"data":    user,
		})
	}
}

// PUT /api/profile/password
func ChangePasswordHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.CurrentActor(c)
		if !ok {
			return
		}
		var input ChangePasswordInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}
		if err := ChangePassword(db.WithContext(c.Request.Context()), actor, input); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": true, "message": "Password changed"})
	}
}
