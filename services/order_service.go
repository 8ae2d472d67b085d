package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/loyalty-rewards-api/models"
	"github.com/kendall-kelly/loyalty-rewards-api/realtime"
	"github.com/kendall-kelly/loyalty-rewards-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmissionItem is one line of the reward form
type SubmissionItem struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Submission is a reward-form submission for one customer.
// OrderDate defaults to the submission time.
type Submission struct {
	CustomerCode string
	Items        []SubmissionItem
	OrderDate    *time.Time
}

// MilestoneEvent records a line whose counter crossed a milestone boundary
type MilestoneEvent struct {
	FoodItem  string `json:"food_item"`
	Milestone int    `json:"milestone"`
}

// SubmissionResult is everything a submission persisted and reached
type SubmissionResult struct {
	Customer     models.Customer  `json:"customer"`
	Orders       []models.Order   `json:"orders"`
	Milestones   []MilestoneEvent `json:"milestones"`
	Failures     []LineFailure    `json:"failures"`
	Notification string           `json:"notification,omitempty"`
}

// MilestoneProgress is a customer's counter for one food item
type MilestoneProgress struct {
	FoodItem      string `json:"food_item"`
	Count         int    `json:"count"`
	NextMilestone int    `json:"next_milestone"`
	Remaining     int    `json:"remaining"`
}

// OrderService turns reward-form submissions into order rows and milestone events
type OrderService struct {
	db        *gorm.DB
	threshold int
	opts      Options
}

var orderServiceInstance *OrderService

// NewOrderService creates an engine that reports a milestone every threshold units
func NewOrderService(db *gorm.DB, threshold int, opts Options) *OrderService {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.Named("orders")
	return &OrderService{db: db, threshold: threshold, opts: opts}
}

// GetOrderService returns the initialized order service instance
func GetOrderService() *OrderService {
	return orderServiceInstance
}

// SetOrderService sets the order service instance
func SetOrderService(service *OrderService) {
	orderServiceInstance = service
}

// Threshold returns the milestone interval
func (s *OrderService) Threshold() int {
	return s.threshold
}

// Submit validates the submission, resolves the customer and processes every line.
// Each line commits on its own: the counter increment and the order insert share
// one transaction, so a failed line leaves its counter untouched while earlier
// and later lines are still persisted. When any line fails the result is returned
// together with a *PartialSubmissionError.
func (s *OrderService) Submit(ctx context.Context, sub Submission) (*SubmissionResult, error) {
	code := strings.TrimSpace(sub.CustomerCode)
	if code == "" {
		return nil, &ValidationError{Field: "customer_code", Message: "customer code is required"}
	}

	items, err := normalizeItems(sub.Items)
	if err != nil {
		return nil, err
	}

	var customer models.Customer
	if err := s.db.WithContext(ctx).Where("customer_code = ?", code).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "customer", Key: code}
		}
		return nil, &PersistenceError{Op: "look up customer", Err: err}
	}

	orderDate := s.opts.Clock.Now()
	if sub.OrderDate != nil {
		orderDate = *sub.OrderDate
	}

	result := &SubmissionResult{
		Customer:   customer,
		Orders:     make([]models.Order, 0, len(items)),
		Milestones: make([]MilestoneEvent, 0),
		Failures:   make([]LineFailure, 0),
	}

	for i, item := range items {
		order, before, after, err := s.submitLine(ctx, customer.ID, item, orderDate)
		if err != nil {
			orderLines.WithLabelValues("failed").Inc()
			s.opts.Logger.Error("order line failed",
				zap.String("customer_code", customer.CustomerCode),
				zap.String("food_item", item.Name),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
			result.Failures = append(result.Failures, LineFailure{
				Line:     i + 1,
				FoodItem: item.Name,
				FoodCode: item.Code,
				Quantity: item.Quantity,
				Reason:   err.Error(),
			})
			continue
		}

		orderLines.WithLabelValues("persisted").Inc()
		result.Orders = append(result.Orders, order)
		s.opts.publish(realtime.Insert, realtime.EntityOrder, order, nil)

		if MilestoneCrossed(before, after, s.threshold) {
			milestonesReached.Inc()
			result.Milestones = append(result.Milestones, MilestoneEvent{FoodItem: item.Name, Milestone: after})
		}
	}

	result.Notification = MilestoneNotification(customer.Name, result.Milestones)

	if len(result.Failures) > 0 {
		return result, &PartialSubmissionError{Persisted: len(result.Orders), Failures: result.Failures}
	}
	return result, nil
}

// submitLine increments the counter, reads it back and inserts the order in one transaction.
// The upsert takes the row lock, so concurrent submissions for the same pair serialize.
func (s *OrderService) submitLine(ctx context.Context, customerID uint, item SubmissionItem, orderDate time.Time) (order models.Order, before, after int, err error) {
	now := s.opts.Clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counter := models.FoodCount{
			CustomerID: customerID,
			FoodItem:   item.Name,
			OrderCount: item.Quantity,
			UpdatedAt:  now,
		}
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_id"}, {Name: "food_item"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"order_count": gorm.Expr("food_counts.order_count + ?", item.Quantity),
				"updated_at":  now,
			}),
		}).Create(&counter).Error; err != nil {
			return fmt.Errorf("increment milestone counter: %w", err)
		}

		var current models.FoodCount
		if err := tx.Where("customer_id = ? AND food_item = ?", customerID, item.Name).First(&current).Error; err != nil {
			return fmt.Errorf("read milestone counter: %w", err)
		}
		after = current.OrderCount
		before = after - item.Quantity

		order = models.Order{
			CustomerID: customerID,
			FoodItem:   item.Name,
			FoodCode:   item.Code,
			Quantity:   item.Quantity,
			OrderDate:  orderDate,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	})
	return order, before, after, err
}

// Progress lists the customer's counters with the next milestone for each item
func (s *OrderService) Progress(ctx context.Context, customerID uint) ([]MilestoneProgress, error) {
	db := s.db.WithContext(ctx)
	if err := db.Select("id").First(&models.Customer{}, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "customer", Key: fmt.Sprint(customerID)}
		}
		return nil, &PersistenceError{Op: "look up customer", Err: err}
	}

	var counters []models.FoodCount
	if err := db.Where("customer_id = ?", customerID).Order("order_count DESC, food_item").Find(&counters).Error; err != nil {
		return nil, &PersistenceError{Op: "list milestone counters", Err: err}
	}

	progress := make([]MilestoneProgress, 0, len(counters))
	for _, c := range counters {
		next := c.NextMilestone(s.threshold)
		progress = append(progress, MilestoneProgress{
			FoodItem:      c.FoodItem,
			Count:         c.OrderCount,
			NextMilestone: next,
			Remaining:     next - c.OrderCount,
		})
	}
	return progress, nil
}

// MilestoneCrossed reports whether moving a counter from before to after passes a
// multiple of threshold that before had not reached.
func MilestoneCrossed(before, after, threshold int) bool {
	if threshold < 1 || after <= before {
		return false
	}
	return after/threshold > before/threshold
}

// MilestoneNotification renders the single customer-facing message for a submission.
// It is empty when no milestone was reached.
func MilestoneNotification(customerName string, events []MilestoneEvent) string {
	if len(events) == 0 {
		return ""
	}
	parts := make([]string, len(events))
	for i, ev := range events {
		parts[i] = fmt.Sprintf("%s (%s order)", ev.FoodItem, utils.Ordinal(ev.Milestone))
	}
	return fmt.Sprintf("Great news! %s has reached a milestone for: %s", customerName, strings.Join(parts, ", "))
}

// normalizeItems drops lines without a code or name and rejects non-positive quantities
func normalizeItems(items []SubmissionItem) ([]SubmissionItem, error) {
	kept := make([]SubmissionItem, 0, len(items))
	for i, item := range items {
		item.Code = strings.TrimSpace(item.Code)
		item.Name = strings.TrimSpace(item.Name)
		if item.Code == "" || item.Name == "" {
			continue
		}
		if item.Quantity < 1 {
			return nil, &ValidationError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "quantity must be a positive integer",
			}
		}
		kept = append(kept, item)
	}
	if len(kept) == 0 {
		return nil, &ValidationError{Field: "items", Message: "at least one item with a code and name is required"}
	}
	return kept, nil
}
