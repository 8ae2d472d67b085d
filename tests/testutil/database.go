package testutil

import (
	"fmt"
	"testing"

	"github.com/kendall-kelly/loyalty-rewards-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a fresh in-memory SQLite database with every model migrated.
// The pool is pinned to one connection because each new connection to ":memory:"
// would see an empty database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to migrate test database")
	return db
}

// FailOrderInserts makes every insert of an order for foodItem fail on db
func FailOrderInserts(t *testing.T, db *gorm.DB, foodItem string) {
	t.Helper()

	name := "testutil:fail_order_" + foodItem
	err := db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if order, ok := tx.Statement.Dest.(*models.Order); ok && order.FoodItem == foodItem {
			tx.AddError(fmt.Errorf("simulated failure inserting %s", foodItem))
		}
	})
	require.NoError(t, err)
}

// CreateCustomer inserts a customer with the given code and name
func CreateCustomer(t *testing.T, db *gorm.DB, code, name string) models.Customer {
	t.Helper()

	customer := models.Customer{CustomerCode: code, Name: name, Email: fmt.Sprintf("%s@example.com", code)}
	require.NoError(t, db.Create(&customer).Error)
	return customer
}

// CountRows returns the number of rows of model
func CountRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
