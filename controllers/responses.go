package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/loyalty-rewards-api/analytics"
	"github.com/kendall-kelly/loyalty-rewards-api/services"
	"github.com/kendall-kelly/loyalty-rewards-api/utils"
	"go.uber.org/zap"
)

const maxPageSize = 100

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string, details interface{}) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   body,
	})
}

func respondValidation(c *gin.Context, message string, details interface{}) {
	respondError(c, http.StatusBadRequest, services.CodeValidation, message, details)
}

// respondServiceError maps the service error taxonomy onto HTTP statuses
func respondServiceError(c *gin.Context, err error) {
	var (
		validation  *services.ValidationError
		notFound    *services.NotFoundError
		conflict    *services.ConflictError
		persistence *services.PersistenceError
		reportErr   *utils.ReportError
	)

	switch {
	case errors.As(err, &validation):
		respondError(c, http.StatusBadRequest, validation.Code(), validation.Error(), gin.H{"field": validation.Field})
	case errors.As(err, &notFound):
		respondError(c, http.StatusNotFound, notFound.Code(), notFound.Error(), nil)
	case errors.As(err, &conflict):
		respondError(c, http.StatusConflict, conflict.Code(), conflict.Error(), nil)
	case errors.As(err, &reportErr):
		respondError(c, http.StatusBadRequest, reportErr.Code, reportErr.Message, nil)
	case errors.As(err, &persistence):
		zap.L().Error("database operation failed", zap.String("path", c.FullPath()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, persistence.Code(), "A database operation failed", nil)
	default:
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}

// parseID reads the :id path parameter
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondValidation(c, "Invalid id", gin.H{"id": c.Param("id")})
		return 0, false
	}
	return uint(id), true
}

// parseRange reads the optional start and end query parameters
func parseRange(c *gin.Context) (analytics.DateRange, bool) {
	r, err := analytics.ParseDateRange(c.Query("start"), c.Query("end"))
	if err != nil {
		respondValidation(c, "Invalid date range", err.Error())
		return analytics.DateRange{}, false
	}
	return r, true
}

// parsePage reads page and page_size, defaulting to the first page of DefaultPageSize
func parsePage(c *gin.Context) (page, pageSize int, ok bool) {
	page, err := queryInt(c, "page", 1)
	if err != nil || page < 1 {
		respondValidation(c, "page must be a positive integer", nil)
		return 0, 0, false
	}
	pageSize, err = queryInt(c, "page_size", analytics.DefaultPageSize)
	if err != nil || pageSize < 1 || pageSize > maxPageSize {
		respondValidation(c, "page_size must be between 1 and 100", nil)
		return 0, 0, false
	}
	return page, pageSize, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
