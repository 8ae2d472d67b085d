package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/loyalty-rewards-api/models"
	"github.com/kendall-kelly/loyalty-rewards-api/realtime"
	"gorm.io/gorm"
)

// FoodInput holds the editable fields of a catalog entry
type FoodInput struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

var foodSearchColumns = map[string]string{
	"code": "code",
	"name": "name",
}

// FoodService manages the food-item catalog. Orders keep their own copy of the
// name and code, so nothing here touches the orders table.
type FoodService struct {
	db   *gorm.DB
	opts Options
}

var foodServiceInstance *FoodService

func NewFoodService(db *gorm.DB, opts Options) *FoodService {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.Named("foods")
	return &FoodService{db: db, opts: opts}
}

// GetFoodService returns the initialized food service instance
func GetFoodService() *FoodService {
	return foodServiceInstance
}

// SetFoodService sets the food service instance
func SetFoodService(service *FoodService) {
	foodServiceInstance = service
}

func (s *FoodService) Create(ctx context.Context, in FoodInput) (*models.FoodItem, error) {
	item := models.FoodItem{}
	if err := applyFoodInput(&item, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Resource: "food_item", Key: item.Code}
		}
		return nil, &PersistenceError{Op: "create food item", Err: err}
	}

	s.opts.publish(realtime.Insert, realtime.EntityFoodItem, item, nil)
	return &item, nil
}

func (s *FoodService) Get(ctx context.Context, id uint) (*models.FoodItem, error) {
	var item models.FoodItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "food_item", Key: fmt.Sprint(id)}
		}
		return nil, &PersistenceError{Op: "get food item", Err: err}
	}
	return &item, nil
}

func (s *FoodService) Update(ctx context.Context, id uint, in FoodInput) (*models.FoodItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *item

	if err := applyFoodInput(item, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Resource: "food_item", Key: item.Code}
		}
		return nil, &PersistenceError{Op: "update food item", Err: err}
	}

	s.opts.publish(realtime.Update, realtime.EntityFoodItem, *item, old)
	return item, nil
}

func (s *FoodService) Delete(ctx context.Context, id uint) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.FoodItem{}, id).Error; err != nil {
		return &PersistenceError{Op: "delete food item", Err: err}
	}

	s.opts.publish(realtime.Delete, realtime.EntityFoodItem, nil, *item)
	return nil
}

// List returns the catalog ordered by name, optionally filtered by a
// case-insensitive substring of name or code
func (s *FoodService) List(ctx context.Context, search string) ([]models.FoodItem, error) {
	items := make([]models.FoodItem, 0)
	query := s.db.WithContext(ctx).Order("name, id")
	if q := strings.TrimSpace(search); q != "" {
		pattern := containsPattern(q)
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(code) LIKE ? ESCAPE '\'`, pattern, pattern)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, &PersistenceError{Op: "list food items", Err: err}
	}
	return items, nil
}

// Search finds items whose code or name starts with q, ordered by that field
func (s *FoodService) Search(ctx context.Context, q, field string, limit int) ([]models.FoodItem, error) {
	col, err := searchColumn(field, foodSearchColumns)
	if err != nil {
		return nil, err
	}

	items := make([]models.FoodItem, 0)
	q = strings.TrimSpace(q)
	if q == "" {
		return items, nil
	}

	if err := s.db.WithContext(ctx).
		Where(fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, col), prefixPattern(q)).
		Order(col).
		Limit(clampLimit(limit)).
		Find(&items).Error; err != nil {
		return nil, &PersistenceError{Op: "search food items", Err: err}
	}
	return items, nil
}

func applyFoodInput(item *models.FoodItem, in FoodInput) error {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" {
		return &ValidationError{Field: "code", Message: "code is required"}
	}
	if name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	item.Code = code
	item.Name = name
	return nil
}
