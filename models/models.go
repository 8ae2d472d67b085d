package models

// All lists every model in migration order
func All() []interface{} {
	return []interface{}{
		&Customer{},
		&FoodItem{},
		&Order{},
		&FoodCount{},
	}
}
