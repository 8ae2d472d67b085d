package models

import "time"

// FoodItem is a catalog entry. Orders copy its name and code at submission time.
type FoodItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"not null;index" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the FoodItem model
func (FoodItem) TableName() string {
	return "food_items"
}
