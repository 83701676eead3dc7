package models

import "time"

// Product categories accepted by the back-office.
const (
	CategoryElectronics = "Electronics"
	CategoryClothing    = "Clothing"
	CategoryFood        = "Food"
	CategoryBooks       = "Books"
	CategoryOther       = "Other"
)

// ProductCategories lists the valid categories in display order.
var ProductCategories = []string{CategoryElectronics, CategoryClothing, CategoryFood, CategoryBooks, CategoryOther}

// MaxProductImages caps the image set of a single product.
const MaxProductImages = 5

// Product is a marketplace listing. Images holds public /storage URLs in display order.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Category    string    `gorm:"size:32;not null;index" json:"category"`
	DateAndTime time.Time `gorm:"not null" json:"date_and_time"`
	Images      []string  `gorm:"type:text;serializer:json" json:"images"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
