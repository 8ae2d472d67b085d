package analytics

import (
	"time"

	"github.com/kendall-kelly/loyalty-rewards-api/models"
	"github.com/shopspring/decimal"
)

// Snapshot is an immutable copy of the three tables the dashboard is derived from.
// Functions in this package only read it, so one snapshot may be shared by
// concurrent callers.
type Snapshot struct {
	Customers []models.Customer
	Orders    []models.Order
	FoodItems []models.FoodItem
}

// Options parameterise BuildDashboard
type Options struct {
	Range           DateRange
	Now             time.Time
	UnitPrice       decimal.Decimal
	RetentionWindow time.Duration
	Segments        SegmentOptions
}

// Summary holds the headline numbers of the dashboard
type Summary struct {
	TotalCustomers     int             `json:"total_customers"`
	TotalOrders        int             `json:"total_orders"`
	TotalFoodItems     int             `json:"total_food_items"`
	NewCustomers       int             `json:"new_customers"`
	Orders             int             `json:"orders"`
	Quantity           int             `json:"quantity"`
	Revenue            decimal.Decimal `json:"revenue"`
	NewCustomersChange float64         `json:"new_customers_change"`
	OrdersChange       float64         `json:"orders_change"`
	Period             RangeLabel      `json:"period"`
	PreviousPeriod     RangeLabel      `json:"previous_period"`
}

// Dashboard bundles every derived view for one range
type Dashboard struct {
	Range          RangeLabel         `json:"range"`
	GeneratedAt    time.Time          `json:"generated_at"`
	Summary        Summary            `json:"summary"`
	CustomerGrowth []GrowthPoint      `json:"customer_growth"`
	OrderTrend     []TrendPoint       `json:"order_trend"`
	MostPopular    []RankedItem       `json:"most_popular"`
	LeastPopular   []RankedItem       `json:"least_popular"`
	TopLocations   []LocationCount    `json:"top_locations"`
	Segmentation   []SegmentBucket    `json:"segmentation"`
	RevenueTrend   []RevenuePoint     `json:"revenue_trend"`
	TopCustomers   []CustomerQuantity `json:"top_customers"`
	RetentionRate  float64            `json:"retention_rate"`
}

// BuildDashboard derives every view from the snapshot
func BuildDashboard(s Snapshot, opts Options) Dashboard {
	r := opts.Range
	mostPopular := Popularity(s.Orders, r)
	leastPopular := make([]RankedItem, len(mostPopular))
	for i, item := range mostPopular {
		leastPopular[len(mostPopular)-1-i] = item
	}

	return Dashboard{
		Range:          r.Label(),
		GeneratedAt:    opts.Now,
		Summary:        Summarize(s, opts),
		CustomerGrowth: CustomerGrowth(s.Customers, r),
		OrderTrend:     OrderTrend(s.Orders, r),
		MostPopular:    mostPopular,
		LeastPopular:   leastPopular,
		TopLocations:   TopLocations(s.Customers, r),
		Segmentation:   Segmentation(s.Customers, s.Orders, opts.Segments),
		RevenueTrend:   RevenueTrend(s.Orders, r, opts.UnitPrice),
		TopCustomers:   FoodOrdersByCustomer(s.Customers, s.Orders, r),
		RetentionRate:  RetentionRate(s.Customers, s.Orders, opts.Now, opts.RetentionWindow),
	}
}

// Summarize computes the headline numbers. The period is opts.Range when it is
// bounded, otherwise the retention window ending at opts.Now; it is compared
// against the preceding period of the same length.
func Summarize(s Snapshot, opts Options) Summary {
	period := opts.Range
	if !period.Bounded() {
		days := int(opts.RetentionWindow.Hours() / 24)
		if days < 1 {
			days = 1
		}
		period = Between(opts.Now.AddDate(0, 0, -(days - 1)), opts.Now)
	}
	previous, _ := period.Previous()

	sum := Summary{
		TotalCustomers: len(s.Customers),
		TotalOrders:    len(s.Orders),
		TotalFoodItems: len(s.FoodItems),
		Revenue:        decimal.Zero,
		Period:         period.Label(),
		PreviousPeriod: previous.Label(),
	}

	prevCustomers, prevOrders := 0, 0
	for _, c := range s.Customers {
		switch {
		case period.Contains(c.CreatedAt):
			sum.NewCustomers++
		case previous.Contains(c.CreatedAt):
			prevCustomers++
		}
	}
	for _, o := range s.Orders {
		switch {
		case period.Contains(o.OrderDate):
			sum.Orders++
			sum.Quantity += o.Quantity
		case previous.Contains(o.OrderDate):
			prevOrders++
		}
	}

	sum.Revenue = opts.UnitPrice.Mul(decimal.NewFromInt(int64(sum.Quantity)))
	sum.NewCustomersChange = PercentageChange(sum.NewCustomers, prevCustomers)
	sum.OrdersChange = PercentageChange(sum.Orders, prevOrders)
	return sum
}
