package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/loyalty-rewards-api/services"
	"github.com/kendall-kelly/loyalty-rewards-api/utils"
	"go.uber.org/zap"
)

// ExportDashboardReport handles POST /api/v1/reports/dashboard. The dashboard for
// the requested range is rendered, uploaded and returned as a presigned URL.
func ExportDashboardReport(c *gin.Context) {
	reports := services.GetReportService()
	if reports == nil {
		respondError(c, http.StatusServiceUnavailable, "REPORTS_DISABLED", "Report storage is not configured", nil)
		return
	}

	format := utils.NormalizeReportFormat(c.DefaultQuery("format", utils.ReportFormatJSON))
	if err := utils.ValidateReportFormat(format); err != nil {
		respondServiceError(c, err)
		return
	}

	r, ok := parseRange(c)
	if !ok {
		return
	}

	d, err := services.GetDashboardService().Dashboard(c.Request.Context(), r)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	export, err := reports.ExportDashboard(c.Request.Context(), d, format)
	if err != nil {
		var reportErr *utils.ReportError
		if errors.As(err, &reportErr) {
			respondServiceError(c, err)
			return
		}
		zap.L().Error("report export failed", zap.String("format", format), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "REPORT_EXPORT_FAILED", "Failed to export report", nil)
		return
	}

	respondSuccess(c, http.StatusCreated, export)
}
