package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/loyalty-rewards-api/analytics"
	"github.com/kendall-kelly/loyalty-rewards-api/middleware"
	"github.com/kendall-kelly/loyalty-rewards-api/services"
	"go.uber.org/zap"
)

// SubmitOrderRequest represents the reward form
type SubmitOrderRequest struct {
	CustomerCode string                    `json:"customer_code"`
	Items        []services.SubmissionItem `json:"items"`
	OrderDate    string                    `json:"order_date"` // optional, YYYY-MM-DD or RFC 3339
}

// SubmitOrder handles POST /api/v1/orders - persists every line and reports milestones
func SubmitOrder(c *gin.Context) {
	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err.Error())
		return
	}

	sub := services.Submission{CustomerCode: req.CustomerCode, Items: req.Items}
	if raw := strings.TrimSpace(req.OrderDate); raw != "" {
		when, err := parseOrderDate(raw)
		if err != nil {
			respondValidation(c, "order_date must be YYYY-MM-DD or RFC 3339", gin.H{"field": "order_date"})
			return
		}
		sub.OrderDate = &when
	}

	result, err := services.GetOrderService().Submit(c.Request.Context(), sub)

	var partial *services.PartialSubmissionError
	if errors.As(err, &partial) {
		status := http.StatusMultiStatus
		if partial.Persisted == 0 {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"success": false,
			"data":    result,
			"error": gin.H{
				"code":    partial.Code(),
				"message": partial.Error(),
				"details": partial.Failures,
			},
		})
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if staff, err := middleware.GetUserID(c); err == nil {
		zap.L().Debug("reward form submitted",
			zap.String("staff", staff),
			zap.String("customer_code", req.CustomerCode),
			zap.Int("lines", len(req.Items)))
	}
	respondSuccess(c, http.StatusCreated, result)
}

func parseOrderDate(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation(analytics.DayLayout, raw, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
