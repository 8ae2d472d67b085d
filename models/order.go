package models

import "time"

// Order is one submitted line of a reward form. FoodItem and FoodCode are
// snapshots taken when the order was placed, not references to food_items.
type Order struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;index" json:"customer_id"` // foreign key to customers table
	FoodItem   string    `gorm:"not null;index" json:"food_item"`
	FoodCode   string    `gorm:"not null" json:"food_code"`
	Quantity   int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	OrderDate  time.Time `gorm:"not null;index" json:"order_date"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}
