package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/loyalty-rewards-api/analytics"
	"github.com/kendall-kelly/loyalty-rewards-api/utils"
	"github.com/raulk/clock"
	"go.uber.org/zap"
)

// ReportService renders dashboards to files and stores them
type ReportService interface {
	// ExportDashboard renders d in format, uploads it and returns its key and download URL
	ExportDashboard(ctx context.Context, d *analytics.Dashboard, format string) (*ReportExport, error)

	// DeleteReport removes a stored report
	DeleteReport(ctx context.Context, key string) error
}

// ReportExport describes a stored report
type ReportExport struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Format      string    `json:"format"`
	Size        int       `json:"size"`
	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// S3ReportService implements ReportService using S3 for storage
type S3ReportService struct {
	s3Service S3Interface
	clock     clock.Clock
}

var reportServiceInstance ReportService

// InitReportService initializes the report service with an S3 backend
func InitReportService(s3Service S3Interface, clk clock.Clock) ReportService {
	if clk == nil {
		clk = clock.New()
	}
	reportServiceInstance = &S3ReportService{s3Service: s3Service, clock: clk}
	return reportServiceInstance
}

// GetReportService returns the initialized report service instance
func GetReportService() ReportService {
	return reportServiceInstance
}

// SetReportService sets the report service instance (primarily for testing)
func SetReportService(service ReportService) {
	reportServiceInstance = service
}

func (s *S3ReportService) ExportDashboard(ctx context.Context, d *analytics.Dashboard, format string) (*ReportExport, error) {
	format = utils.NormalizeReportFormat(format)
	if err := utils.ValidateReportFormat(format); err != nil {
		return nil, err
	}

	body, err := RenderDashboard(d, format)
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	if err := utils.ValidateReportSize(len(body)); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	key := utils.ReportKey(now, uuid.NewString(), format)
	if err := s.s3Service.PutObject(ctx, key, body, utils.ReportContentType(format)); err != nil {
		return nil, fmt.Errorf("failed to upload report: %w", err)
	}

	url, err := s.s3Service.GetPresignedURL(ctx, key)
	if err != nil {
		// an object nobody can download is removed again
		if delErr := s.DeleteReport(ctx, key); delErr != nil {
			zap.L().Named("reports").Warn("failed to remove unreachable report",
				zap.String("key", key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to generate report URL: %w", err)
	}

	return &ReportExport{
		Key:         key,
		URL:         url,
		Format:      format,
		Size:        len(body),
		GeneratedAt: now,
		ExpiresAt:   now.Add(PresignExpiry),
	}, nil
}

func (s *S3ReportService) DeleteReport(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.s3Service.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

// RenderDashboard encodes the dashboard as indented JSON or as a flat CSV of
// section,label,value rows
func RenderDashboard(d *analytics.Dashboard, format string) ([]byte, error) {
	if format == utils.ReportFormatJSON {
		return json.MarshalIndent(d, "", "  ")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := [][]string{{"section", "label", "value"}}
	add := func(section, label, value string) {
		rows = append(rows, []string{section, label, value})
	}
	itoa := strconv.Itoa
	pct := func(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }

	s := d.Summary
	add("summary", "period_start", s.Period.Start)
	add("summary", "period_end", s.Period.End)
	add("summary", "total_customers", itoa(s.TotalCustomers))
	add("summary", "total_orders", itoa(s.TotalOrders))
	add("summary", "total_food_items", itoa(s.TotalFoodItems))
	add("summary", "new_customers", itoa(s.NewCustomers))
	add("summary", "orders", itoa(s.Orders))
	add("summary", "quantity", itoa(s.Quantity))
	add("summary", "revenue", s.Revenue.StringFixed(2))
	add("summary", "new_customers_change", pct(s.NewCustomersChange))
	add("summary", "orders_change", pct(s.OrdersChange))
	add("summary", "retention_rate", pct(d.RetentionRate))

	for _, p := range d.CustomerGrowth {
		add("customer_growth", p.Date, itoa(p.Customers))
	}
	for _, p := range d.OrderTrend {
		add("order_trend", p.Date, itoa(p.Orders))
	}
	for _, p := range d.MostPopular {
		add("popularity", p.Name, itoa(p.Value))
	}
	for _, l := range d.TopLocations {
		add("locations", l.Location, itoa(l.Count))
	}
	for _, b := range d.Segmentation {
		add("segmentation", b.Label, itoa(b.Count))
	}
	for _, p := range d.RevenueTrend {
		add("revenue", p.Date, p.Revenue.StringFixed(2))
	}
	for _, c := range d.TopCustomers {
		add("top_customers", c.CustomerCode, itoa(c.Quantity))
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
