package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/kendall-kelly/loyalty-rewards-api/models"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// UnknownLocation buckets customers with no address
const UnknownLocation = "Unknown"

// GrowthPoint is the number of customers created on a day
type GrowthPoint struct {
	Date       string `json:"date"`
	Customers  int    `json:"customers"`
	Cumulative int    `json:"cumulative"`
}

// TrendPoint is the number of order rows placed on a day
type TrendPoint struct {
	Date   string `json:"date"`
	Orders int    `json:"orders"`
}

// RankedItem is a food item with its summed quantity
type RankedItem struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// LocationCount is the number of customers sharing an address
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// RevenuePoint is the placeholder revenue for a day
type RevenuePoint struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
}

// CustomerQuantity is the total quantity ordered by one customer
type CustomerQuantity struct {
	CustomerID   uint   `json:"customer_id"`
	CustomerCode string `json:"customer_code"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
}

// HistoryLine is a customer's order history collapsed to one line per food item
type HistoryLine struct {
	FoodItem string `json:"food_item"`
	FoodCode string `json:"food_code"`
	Quantity int    `json:"quantity"`
	Orders   int    `json:"orders"`
}

// CustomerGrowth counts customers created per calendar day inside r, ascending by date
func CustomerGrowth(customers []models.Customer, r DateRange) []GrowthPoint {
	inRange := lo.Filter(customers, func(c models.Customer, _ int) bool {
		return r.Contains(c.CreatedAt)
	})
	days, counts := countByDay(lo.Map(inRange, func(c models.Customer, _ int) time.Time {
		return c.CreatedAt
	}))

	points := make([]GrowthPoint, 0, len(days))
	total := 0
	for _, day := range days {
		total += counts[day]
		points = append(points, GrowthPoint{Date: day, Customers: counts[day], Cumulative: total})
	}
	return points
}

// OrderTrend counts order rows per calendar day inside r, ascending by date
func OrderTrend(orders []models.Order, r DateRange) []TrendPoint {
	days, counts := countByDay(lo.FilterMap(orders, func(o models.Order, _ int) (time.Time, bool) {
		return o.OrderDate, r.Contains(o.OrderDate)
	}))

	points := make([]TrendPoint, 0, len(days))
	for _, day := range days {
		points = append(points, TrendPoint{Date: day, Orders: counts[day]})
	}
	return points
}

// Popularity sums quantity per food item name inside r and sorts descending.
// Ties keep the order in which the items first appear in orders.
func Popularity(orders []models.Order, r DateRange) []RankedItem {
	items := make([]RankedItem, 0)
	index := make(map[string]int)

	for _, o := range orders {
		if !r.Contains(o.OrderDate) {
			continue
		}
		i, ok := index[o.FoodItem]
		if !ok {
			i = len(items)
			index[o.FoodItem] = i
			items = append(items, RankedItem{Name: o.FoodItem})
		}
		items[i].Value += o.Quantity
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Value > items[j].Value
	})
	return items
}

// MostPopular is an alias of Popularity
func MostPopular(orders []models.Order, r DateRange) []RankedItem {
	return Popularity(orders, r)
}

// LeastPopular is the exact reverse of MostPopular
func LeastPopular(orders []models.Order, r DateRange) []RankedItem {
	return lo.Reverse(Popularity(orders, r))
}

// TopLocations counts customers created inside r per raw address, descending by count.
// Blank addresses are reported as UnknownLocation.
func TopLocations(customers []models.Customer, r DateRange) []LocationCount {
	locations := make([]LocationCount, 0)
	index := make(map[string]int)

	for _, c := range customers {
		if !r.Contains(c.CreatedAt) {
			continue
		}
		key := strings.TrimSpace(c.Address)
		if key == "" {
			key = UnknownLocation
		}
		i, ok := index[key]
		if !ok {
			i = len(locations)
			index[key] = i
			locations = append(locations, LocationCount{Location: key})
		}
		locations[i].Count++
	}

	sort.SliceStable(locations, func(i, j int) bool {
		return locations[i].Count > locations[j].Count
	})
	return locations
}

// RevenueTrend is the per-day sum of quantity * unitPrice inside r, ascending by date
func RevenueTrend(orders []models.Order, r DateRange, unitPrice decimal.Decimal) []RevenuePoint {
	quantities := make(map[string]int)
	for _, o := range orders {
		if r.Contains(o.OrderDate) {
			quantities[dayKey(o.OrderDate)] += o.Quantity
		}
	}

	days := lo.Keys(quantities)
	sort.Strings(days)

	points := make([]RevenuePoint, 0, len(days))
	for _, day := range days {
		points = append(points, RevenuePoint{
			Date:    day,
			Revenue: unitPrice.Mul(decimal.NewFromInt(int64(quantities[day]))),
		})
	}
	return points
}

// FoodOrdersByCustomer sums quantity per customer inside r, descending by quantity
func FoodOrdersByCustomer(customers []models.Customer, orders []models.Order, r DateRange) []CustomerQuantity {
	byID := lo.KeyBy(customers, func(c models.Customer) uint { return c.ID })

	totals := make([]CustomerQuantity, 0)
	index := make(map[uint]int)
	for _, o := range orders {
		if !r.Contains(o.OrderDate) {
			continue
		}
		i, ok := index[o.CustomerID]
		if !ok {
			i = len(totals)
			index[o.CustomerID] = i
			c := byID[o.CustomerID]
			totals = append(totals, CustomerQuantity{CustomerID: o.CustomerID, CustomerCode: c.CustomerCode, Name: c.Name})
		}
		totals[i].Quantity += o.Quantity
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Quantity > totals[j].Quantity
	})
	return totals
}

// RetentionRate is the percentage of customers with at least one order in the
// trailing window ending at now. Zero customers yields 0.
func RetentionRate(customers []models.Customer, orders []models.Order, now time.Time, window time.Duration) float64 {
	if len(customers) == 0 {
		return 0
	}

	since := now.Add(-window)
	active := make(map[uint]struct{})
	for _, o := range orders {
		if o.OrderDate.Before(since) || o.OrderDate.After(now) {
			continue
		}
		active[o.CustomerID] = struct{}{}
	}

	retained := 0
	for _, c := range customers {
		if _, ok := active[c.ID]; ok {
			retained++
		}
	}
	return float64(retained) / float64(len(customers)) * 100
}

// PercentageChange returns (current - previous) / previous * 100.
// A zero previous value yields 100 when current grew and 0 otherwise.
func PercentageChange(current, previous int) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

// OrderHistory collapses orders to one line per food item name, in first-seen order
func OrderHistory(orders []models.Order) []HistoryLine {
	lines := make([]HistoryLine, 0)
	index := make(map[string]int)
	for _, o := range orders {
		i, ok := index[o.FoodItem]
		if !ok {
			i = len(lines)
			index[o.FoodItem] = i
			lines = append(lines, HistoryLine{FoodItem: o.FoodItem, FoodCode: o.FoodCode})
		}
		lines[i].Quantity += o.Quantity
		lines[i].Orders++
	}
	return lines
}

// countByDay returns the sorted distinct days of ts and the count per day
func countByDay(ts []time.Time) ([]string, map[string]int) {
	counts := make(map[string]int)
	for _, t := range ts {
		counts[dayKey(t)]++
	}
	days := lo.Keys(counts)
	sort.Strings(days)
	return days, counts
}
