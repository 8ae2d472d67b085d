package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/loyalty-rewards-api/analytics"
	"github.com/kendall-kelly/loyalty-rewards-api/services"
)

// GetDashboard handles GET /api/v1/analytics/dashboard. Superseded fetches
// from the same session are answered with stale set.
func GetDashboard(c *gin.Context) {
	seq := beginSequence(c)

	r, ok := parseRange(c)
	if !ok {
		return
	}

	d, err := services.GetDashboardService().Dashboard(c.Request.Context(), r)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSequenced(c, seq, http.StatusOK, d)
}

// GetPopularity handles GET /api/v1/analytics/popularity?order=most|least
func GetPopularity(c *gin.Context) {
	order := c.DefaultQuery("order", "most")
	if order != "most" && order != "least" {
		respondValidation(c, "order must be most or least", gin.H{"order": order})
		return
	}

	r, ok := parseRange(c)
	if !ok {
		return
	}
	page, pageSize, ok := parsePage(c)
	if !ok {
		return
	}

	snap, err := services.GetDashboardService().Snapshot(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var ranked []analytics.RankedItem
	if order == "least" {
		ranked = analytics.LeastPopular(snap.Orders, r)
	} else {
		ranked = analytics.MostPopular(snap.Orders, r)
	}
	respondSuccess(c, http.StatusOK, analytics.Paginate(ranked, page, pageSize))
}

// GetTopLocations handles GET /api/v1/analytics/locations
func GetTopLocations(c *gin.Context) {
	r, ok := parseRange(c)
	if !ok {
		return
	}
	page, pageSize, ok := parsePage(c)
	if !ok {
		return
	}

	snap, err := services.GetDashboardService().Snapshot(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, analytics.Paginate(analytics.TopLocations(snap.Customers, r), page, pageSize))
}

// GetTopCustomers handles GET /api/v1/analytics/top-customers
func GetTopCustomers(c *gin.Context) {
	r, ok := parseRange(c)
	if !ok {
		return
	}
	page, pageSize, ok := parsePage(c)
	if !ok {
		return
	}

	snap, err := services.GetDashboardService().Snapshot(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	totals := analytics.FoodOrdersByCustomer(snap.Customers, snap.Orders, r)
	respondSuccess(c, http.StatusOK, analytics.Paginate(totals, page, pageSize))
}

// GetPercentageChange handles GET /api/v1/analytics/percentage-change?current=&previous=
func GetPercentageChange(c *gin.Context) {
	current, errCur := strconv.Atoi(c.Query("current"))
	previous, errPrev := strconv.Atoi(c.Query("previous"))
	if errCur != nil || errPrev != nil {
		respondValidation(c, "current and previous must be integers", nil)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"current":  current,
		"previous": previous,
		"change":   analytics.PercentageChange(current, previous),
	})
}
