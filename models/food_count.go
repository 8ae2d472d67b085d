package models

import "time"

// FoodCount is the running milestone counter for a (customer, food item name) pair.
// OrderCount is the cumulative quantity ordered to date.
type FoodCount struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;uniqueIndex:idx_food_counts_customer_item" json:"customer_id"`
	FoodItem   string    `gorm:"not null;uniqueIndex:idx_food_counts_customer_item" json:"food_item"`
	OrderCount int       `gorm:"not null;default:0" json:"order_count"`
	Customer   Customer  `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for the FoodCount model
func (FoodCount) TableName() string {
	return "food_counts"
}

// NextMilestone returns the next multiple of threshold strictly above the current count
func (f FoodCount) NextMilestone(threshold int) int {
	if threshold < 1 {
		return 0
	}
	return (f.OrderCount/threshold + 1) * threshold
}
