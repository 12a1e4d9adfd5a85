package database

import (
	"fmt"
	"log/slog"

	"github.com/Mouss911/webnet-back/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedCategories = []models.Category{
	{Name: "Electronics", Description: "Electronic devices and accessories"},
	{Name: "Clothing", Description: "Fashion and apparel"},
	{Name: "Books", Description: "Books and publications"},
	{Name: "Home & Garden", Description: "Home decor and gardening items"},
}

type seedProduct struct {
	name, description, price, image, category string
	stock                                     int
}

var seedProducts = []seedProduct{
	{"Smartphone XYZ", "Latest model smartphone with advanced features", "699.99", "smartphone.jpg", "Electronics", 50},
	{"Cotton T-Shirt", "Comfortable cotton t-shirt", "19.99", "tshirt.jpg", "Clothing", 100},
	{"Programming Book", "Learn programming from scratch", "45.99", "book.jpg", "Books", 30},
	{"Garden Tools Set", "Complete set of essential garden tools", "89.99", "tools.jpg", "Home & Garden", 20},
}

var seedUsers = []struct {
	name, email string
	role        models.Role
}{
	{"John Doe", "john@example.com", models.RoleUser},
	{"Jane Smith", "jane@example.com", models.RoleUser},
	{"Store Admin", "admin@example.com", models.RoleAdmin},
}

const seedPassword = "password123"

// Seed inserts demo catalog data and accounts. Rows that already exist are left alone.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		byName := make(map[string]uint, len(seedCategories))
		for _, c := range seedCategories {
			category := c
			if err := tx.Where(models.Category{Name: c.Name}).FirstOrCreate(&category).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
			byName[category.Name] = category.ID
		}

		for _, p := range seedProducts {
			product := models.Product{
				Name:        p.name,
				Description: p.description,
				Price:       decimal.RequireFromString(p.price),
				Stock:       p.stock,
				Image:       p.image,
				CategoryID:  byName[p.category],
			}
			if err := tx.Where(models.Product{Name: p.name}).FirstOrCreate(&product).Error; err != nil {
				return fmt.Errorf("seed product %s: %w", p.name, err)
			}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		for _, u := range seedUsers {
			user := models.User{
				ID:           uuid.NewString(),
				Name:         u.name,
				Email:        u.email,
				PasswordHash: string(hash),
				Role:         u.role,
			}
			if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
				Create(&user).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", u.email, err)
			}
		}

		slog.Info("database seeded",
			"categories", len(seedCategories),
			"products", len(seedProducts),
			"users", len(seedUsers),
		)
		return nil
	})
}
