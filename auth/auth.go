package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/database"
	"github.com/Mouss911/webnet-back/models"
)

const MinPasswordLen = 6

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

type RegisterRequest struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required"`
	PasswordConfirmation string `json:"password_confirmation"`
	Phone                string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// -------- Core Logic --------

// Register creates a regular user and returns it with a session token.
func Register(db *gorm.DB, tokens *TokenIssuer, req RegisterRequest) (*models.User, string, error) {
	if len(req.Password) < MinPasswordLen {
		return nil, "", apperr.Validation("The password must be at least %d characters.", MinPasswordLen)
	}
	if req.Password != req.PasswordConfirmation {
		return nil, "", apperr.Validation("The password confirmation does not match.")
	}
	phone := strings.TrimSpace(req.Phone)
	if phone != "" && !phonePattern.MatchString(phone) {
		return nil, "", apperr.Validation("The phone format is invalid.")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, "", apperr.Internal("Registration failed", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Phone:        phone,
		Role:         models.RoleUser,
	}
	if err := db.Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, "", apperr.Conflict("The email has already been taken.")
		}
		return nil, "", apperr.Internal("Registration failed", err)
	}

	token, _, err := tokens.Issue(user)
	if err != nil {
		return nil, "", apperr.Internal("Registration failed", err)
	}
	return &user, token, nil
}

// Login checks the credentials and issues a token. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func Login(db *gorm.DB, tokens *TokenIssuer, req LoginRequest) (string, error) {
	var user models.User
	err := db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.Unauthorized("Invalid credentials")
		}
		return "", apperr.Internal("Login failed", err)
	}
	if !CheckPassword(user.PasswordHash, req.Password) {
		return "", apperr.Unauthorized("Invalid credentials")
	}

	token, _, err := tokens.Issue(user)
	if err != nil {
		return "", apperr.Internal("Login failed", err)
	}
	return token, nil
}

// Logout revokes the token the actor authenticated with.
func Logout(db *gorm.DB, actor Actor) error {
	revoked := models.RevokedToken{
		JTI:       actor.TokenID,
		UserID:    actor.UserID,
		ExpiresAt: actor.ExpiresAt,
	}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&revoked).Error
	if err != nil {
		return apperr.Internal("Logout failed", err)
	}
	return nil
}

// Refresh rotates the actor's token: a new one is issued from the current
// user record and the presented one is revoked.
func Refresh(db *gorm.DB, tokens *TokenIssuer, actor Actor) (string, error) {
	var user models.User
	if err := db.First(&user, "id = ?", actor.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.Unauthorized("User no longer exists")
		}
		return "", apperr.Internal("Token refresh failed", err)
	}

	token, _, err := tokens.Issue(user)
	if err != nil {
		return "", apperr.Internal("Token refresh failed", err)
	}
	if err := Logout(db, actor); err != nil {
		return "", err
	}
	return token, nil
}

var (
	ErrTokenRevoked = errors.New("token has been revoked")
	ErrUnknownUser  = errors.New("token user no longer exists")
)

// Authenticate resolves the actor for verified claims. Email and role are read
// from the stored user rather than the token, so a role change applies to
// tokens already issued.
func Authenticate(db *gorm.DB, claims *Claims) (Actor, error) {
	revoked, err := IsRevoked(db, claims.ID)
	if err != nil {
		return Actor{}, err
	}
	if revoked {
		return Actor{}, ErrTokenRevoked
	}

	var user models.User
	if err := db.Select("id", "email", "role").First(&user, "id = ?", claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Actor{}, ErrUnknownUser
		}
		return Actor{}, err
	}

	actor := ActorFromClaims(claims)
	actor.Email = user.Email
	actor.Role = user.Role
	return actor, nil
}

func IsRevoked(db *gorm.DB, jti string) (bool, error) {
	var count int64
	if err := db.Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurgeRevoked drops revocations whose tokens have expired on their own.
func PurgeRevoked(db *gorm.DB, now time.Time) (int64, error) {
	res := db.Where("expires_at < ?", now).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}

// StartRevocationSweeper purges expired revocations every interval until ctx is done.
func StartRevocationSweeper(ctx context.Context, db *gorm.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := PurgeRevoked(db.WithContext(ctx), now)
			if err != nil {
				slog.Error("purge revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged revoked tokens", "count", n)
			}
		}
	}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// -------- Handlers --------

// POST /api/register
func RegisterHandler(db *gorm.DB, tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}

		user, token, err := Register(db.WithContext(c.Request.Context()), tokens, req)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
	}
}

// POST /api/login
func LoginHandler(db *gorm.DB, tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, apperr.Binding(err))
			return
		}

		token, err := Login(db.WithContext(c.Request.Context()), tokens, req)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  true,
			"message": "Login successful",
			"token":   token,
		})
	}
}

// GET /api/logout
func LogoutHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			return
		}
		if err := Logout(db.WithContext(c.Request.Context()), actor); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": true, "message": "User logged out"})
	}
}

// GET /api/refresh-token
func RefreshTokenHandler(db *gorm.DB, tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			return
		}
		token, err := Refresh(db.WithContext(c.Request.Context()), tokens, actor)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":       true,
			"message":      "Token refreshed successfully",
			"access_token": token,
		})
	}
}
