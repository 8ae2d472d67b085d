package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MaxReportSize is 10MB in bytes
	MaxReportSize = 10 * 1024 * 1024

	ReportFormatJSON = "json"
	ReportFormatCSV  = "csv"
)

// ReportPrefix is the object key prefix for exported reports.
// Can be overridden for testing
var ReportPrefix = "reports"

// ReportError represents a report export validation error
type ReportError struct {
	Code    string
	Message string
}

func (e *ReportError) Error() string {
	return e.Message
}

// NormalizeReportFormat lower-cases format and defaults it to JSON
func NormalizeReportFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return ReportFormatJSON
	}
	return format
}

// ValidateReportFormat checks that format is one of the supported export formats
func ValidateReportFormat(format string) error {
	switch format {
	case ReportFormatJSON, ReportFormatCSV:
		return nil
	}
	return &ReportError{
		Code:    "INVALID_REPORT_FORMAT",
		Message: fmt.Sprintf("Report format must be %s or %s", ReportFormatJSON, ReportFormatCSV),
	}
}

// ValidateReportSize rejects rendered reports larger than MaxReportSize
func ValidateReportSize(size int) error {
	if size > MaxReportSize {
		return &ReportError{
			Code:    "REPORT_TOO_LARGE",
			Message: fmt.Sprintf("Report size exceeds maximum allowed size of %d MB", MaxReportSize/(1024*1024)),
		}
	}
	return nil
}

// ReportKey returns the storage key for a report generated at now.
// Format: reports/{YYYY-MM-DD}/{id}.{format}
func ReportKey(now time.Time, id, format string) string {
	return fmt.Sprintf("%s/%s/%s.%s", ReportPrefix, now.Format("2006-01-02"), id, format)
}

// ReportContentType returns the MIME type for an export format
func ReportContentType(format string) string {
	if format == ReportFormatCSV {
		return "text/csv"
	}
	return "application/json"
}
