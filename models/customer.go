package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Customer represents a loyalty programme member
type Customer struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CustomerCode string          `gorm:"uniqueIndex;not null" json:"customer_code"` // human-facing code, searched by prefix
	Name         string          `gorm:"not null;index" json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"` // free text, used as the location key
	DateOfBirth  *datatypes.Date `json:"date_of_birth"`
	Anniversary  *datatypes.Date `json:"anniversary"`
	Orders       []Order         `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// BeforeCreate assigns a customer code when none was provided
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(c.CustomerCode) == "" {
		c.CustomerCode = NewCustomerCode()
	}
	return nil
}

// NewCustomerCode returns a short random code such as "C7F3A09B1"
func NewCustomerCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "C" + strings.ToUpper(id[:8])
}
