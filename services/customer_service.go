package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/loyalty-rewards-api/analytics"
	"github.com/kendall-kelly/loyalty-rewards-api/models"
	"github.com/kendall-kelly/loyalty-rewards-api/realtime"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CustomerInput holds the editable fields of a customer. Dates are YYYY-MM-DD;
// an empty customer code is generated on create and left unchanged on update.
type CustomerInput struct {
	CustomerCode string `json:"customer_code"`
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	DateOfBirth  string `json:"date_of_birth"`
	Anniversary  string `json:"anniversary"`
}

var customerSearchColumns = map[string]string{
	"code": "customer_code",
	"name": "name",
}

// CustomerService manages customer records
type CustomerService struct {
	db   *gorm.DB
	opts Options
}

var customerServiceInstance *CustomerService

func NewCustomerService(db *gorm.DB, opts Options) *CustomerService {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.Named("customers")
	return &CustomerService{db: db, opts: opts}
}

// GetCustomerService returns the initialized customer service instance
func GetCustomerService() *CustomerService {
	return customerServiceInstance
}

// SetCustomerService sets the customer service instance
func SetCustomerService(service *CustomerService) {
	customerServiceInstance = service
}

// Create inserts a customer
func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	customer := models.Customer{}
	if err := applyCustomerInput(&customer, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&customer).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Resource: "customer", Key: customer.CustomerCode}
		}
		return nil, &PersistenceError{Op: "create customer", Err: err}
	}

	s.opts.publish(realtime.Insert, realtime.EntityCustomer, customer, nil)
	return &customer, nil
}

// Get loads one customer by id
func (s *CustomerService) Get(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "customer", Key: fmt.Sprint(id)}
		}
		return nil, &PersistenceError{Op: "get customer", Err: err}
	}
	return &customer, nil
}

// Update replaces the editable fields of a customer
func (s *CustomerService) Update(ctx context.Context, id uint, in CustomerInput) (*models.Customer, error) {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *customer

	if err := applyCustomerInput(customer, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Omit("Orders", "CreatedAt").Save(customer).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Resource: "customer", Key: customer.CustomerCode}
		}
		return nil, &PersistenceError{Op: "update customer", Err: err}
	}

	s.opts.publish(realtime.Update, realtime.EntityCustomer, *customer, old)
	return customer, nil
}

// Delete removes a customer together with its orders and milestone counters
func (s *CustomerService) Delete(ctx context.Context, id uint) error {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customer_id = ?", id).Delete(&models.FoodCount{}).Error; err != nil {
			return err
		}
		if err := tx.Where("customer_id = ?", id).Delete(&models.Order{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Customer{}, id).Error
	})
	if err != nil {
		return &PersistenceError{Op: "delete customer", Err: err}
	}

	s.opts.publish(realtime.Delete, realtime.EntityCustomer, nil, *customer)
	return nil
}

// List returns one page of customers, newest first, optionally filtered by a
// case-insensitive substring of name or email
func (s *CustomerService) List(ctx context.Context, search string, page, pageSize int) (analytics.Page[models.Customer], error) {
	if pageSize < 1 {
		pageSize = analytics.DefaultPageSize
	}
	result := analytics.Page[models.Customer]{Items: []models.Customer{}, Page: page, PageSize: pageSize}

	query := s.db.WithContext(ctx).Model(&models.Customer{})
	if q := strings.TrimSpace(search); q != "" {
		pattern := containsPattern(q)
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return result, &PersistenceError{Op: "count customers", Err: err}
	}
	result.Total = int(total)
	result.TotalPages = analytics.PageCount(result.Total, pageSize)
	if page < 1 || page > result.TotalPages {
		return result, nil
	}

	if err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&result.Items).Error; err != nil {
		return result, &PersistenceError{Op: "list customers", Err: err}
	}
	return result, nil
}

// Search finds customers whose code or name starts with q, ordered by that field
func (s *CustomerService) Search(ctx context.Context, q, field string, limit int) ([]models.Customer, error) {
	col, err := searchColumn(field, customerSearchColumns)
	if err != nil {
		return nil, err
	}

	customers := make([]models.Customer, 0)
	q = strings.TrimSpace(q)
	if q == "" {
		return customers, nil
	}

	if err := s.db.WithContext(ctx).
		Where(fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, col), prefixPattern(q)).
		Order(col).
		Limit(clampLimit(limit)).
		Find(&customers).Error; err != nil {
		return nil, &PersistenceError{Op: "search customers", Err: err}
	}
	return customers, nil
}

// History returns the customer's orders collapsed to one line per food item
func (s *CustomerService) History(ctx context.Context, id uint) ([]analytics.HistoryLine, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := s.db.WithContext(ctx).Where("customer_id = ?", id).Order("order_date, id").Find(&orders).Error; err != nil {
		return nil, &PersistenceError{Op: "load order history", Err: err}
	}
	return analytics.OrderHistory(orders), nil
}

func applyCustomerInput(c *models.Customer, in CustomerInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}

	dob, err := parseOptionalDate("date_of_birth", in.DateOfBirth)
	if err != nil {
		return err
	}
	anniversary, err := parseOptionalDate("anniversary", in.Anniversary)
	if err != nil {
		return err
	}

	if code := strings.TrimSpace(in.CustomerCode); code != "" {
		c.CustomerCode = code
	}
	c.Name = name
	c.Email = strings.TrimSpace(in.Email)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Address = strings.TrimSpace(in.Address)
	c.DateOfBirth = dob
	c.Anniversary = anniversary
	return nil
}

func parseOptionalDate(field, value string) (*datatypes.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(analytics.DayLayout, value)
	if err != nil {
		return nil, &ValidationError{Field: field, Message: "must be a date in YYYY-MM-DD format"}
	}
	d := datatypes.Date(t)
	return &d, nil
}
