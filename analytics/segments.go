package analytics

import "github.com/kendall-kelly/loyalty-rewards-api/models"

// Segment labels
const (
	SegmentNone    = "0 orders"
	SegmentOneTwo  = "1-2 orders"
	SegmentFew     = "3-5 orders"
	SegmentRegular = "6-10 orders"
	SegmentLoyal   = "11+ orders"
)

// SegmentOptions controls how customers without orders are bucketed
type SegmentOptions struct {
	// SeparateZeroOrders adds a leading "0 orders" bucket. When false, customers
	// without orders are counted in "1-2 orders".
	SeparateZeroOrders bool
}

// SegmentBucket is the number of customers whose order count falls in a band
type SegmentBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Segmentation classifies every customer by their number of order rows across the
// full order history. The bucket counts always sum to len(customers).
func Segmentation(customers []models.Customer, orders []models.Order, opts SegmentOptions) []SegmentBucket {
	perCustomer := make(map[uint]int)
	for _, o := range orders {
		perCustomer[o.CustomerID]++
	}

	labels := []string{SegmentOneTwo, SegmentFew, SegmentRegular, SegmentLoyal}
	if opts.SeparateZeroOrders {
		labels = append([]string{SegmentNone}, labels...)
	}
	buckets := make([]SegmentBucket, len(labels))
	position := make(map[string]int, len(labels))
	for i, label := range labels {
		buckets[i].Label = label
		position[label] = i
	}

	for _, c := range customers {
		buckets[position[segmentFor(perCustomer[c.ID], opts)]].Count++
	}
	return buckets
}

func segmentFor(orders int, opts SegmentOptions) string {
	switch {
	case orders == 0 && opts.SeparateZeroOrders:
		return SegmentNone
	case orders <= 2:
		return SegmentOneTwo
	case orders <= 5:
		return SegmentFew
	case orders <= 10:
		return SegmentRegular
	default:
		return SegmentLoyal
	}
}
