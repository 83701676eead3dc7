package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/praxxy/backoffice/models"
)

type seedUser struct {
	Name     string
	Email    string
	Password string
}

var seedUsers = []seedUser{
	{Name: "User One", Email: "user1@example.com", Password: "password1"},
	{Name: "User Two", Email: "user2@example.com", Password: "password2"},
	{Name: "User Three", Email: "user3@example.com", Password: "password3"},
}

var seedProducts = []models.Product{
	{Name: "Wireless Headphones", Category: models.CategoryElectronics, Description: "Over-ear headphones with active noise cancelling."},
	{Name: "Running Shoes", Category: models.CategoryClothing, Description: "Lightweight trainers for daily road running."},
	{Name: "Paperback Novel", Category: models.CategoryBooks, Description: "A mystery set in a small coastal town."},
	{Name: "Dried Mangoes", Category: models.CategoryFood, Description: "Sweet dried mango slices from Cebu."},
	{Name: "Desk Organizer", Category: models.CategoryOther, Description: "Bamboo organizer with five compartments."},
}

// Seed inserts the default accounts and, on an empty catalogue, a handful of sample products.
// Running it again leaves existing rows untouched.
func Seed(db *gorm.DB, log *zap.Logger) error {
	for _, su := range seedUsers {
		var existing models.User
		err := db.Where("email = ?", su.Email).First(&existing).Error
		if err == nil {
			log.Debug("seed user exists", zap.String("email", su.Email))
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup seed user %s: %w", su.Email, err)
		}
		u := models.User{Name: su.Name, Email: su.Email}
		if err := u.SetPassword(su.Password); err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		if err := db.Create(&u).Error; err != nil {
			return fmt.Errorf("create seed user %s: %w", su.Email, err)
		}
		log.Info("seeded user", zap.String("email", u.Email), zap.Uint("id", u.ID))
	}

	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return nil
	}
	when := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Minute)
	for i, p := range seedProducts {
		p.DateAndTime = when.Add(time.Duration(i) * 24 * time.Hour)
		p.Images = []string{}
		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("create seed product %q: %w", p.Name, err)
		}
	}
	log.Info("seeded products", zap.Int("count", len(seedProducts)))
	return nil
}
