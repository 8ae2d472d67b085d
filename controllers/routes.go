package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/loyalty-rewards-api/config"
	"github.com/kendall-kelly/loyalty-rewards-api/middleware"
	"github.com/kendall-kelly/loyalty-rewards-api/realtime"
)

// RegisterRoutes mounts the loyalty API on the /api/v1 group. Write routes are
// guarded by scope when authentication is enabled.
func RegisterRoutes(v1 *gin.RouterGroup, cfg *config.Config, hub *realtime.Hub) {
	v1.POST("/orders", middleware.ScopeGuard(cfg, middleware.ScopeWriteOrders), SubmitOrder)

	customers := v1.Group("/customers")
	{
		manage := middleware.ScopeGuard(cfg, middleware.ScopeManageCustomers)
		customers.GET("", ListCustomers)
		customers.POST("", manage, CreateCustomer)
		customers.GET("/search", SearchCustomers)
		customers.GET("/:id", GetCustomer)
		customers.PUT("/:id", manage, UpdateCustomer)
		customers.DELETE("/:id", manage, DeleteCustomer)
		customers.GET("/:id/orders", GetCustomerOrders)
		customers.GET("/:id/milestones", GetCustomerMilestones)
	}

	foods := v1.Group("/foods")
	{
		manage := middleware.ScopeGuard(cfg, middleware.ScopeManageFoods)
		foods.GET("", ListFoods)
		foods.POST("", manage, CreateFood)
		foods.GET("/search", SearchFoods)
		foods.PUT("/:id", manage, UpdateFood)
		foods.DELETE("/:id", manage, DeleteFood)
	}

	reporting := v1.Group("/analytics", middleware.ScopeGuard(cfg, middleware.ScopeReadAnalytics))
	{
		reporting.GET("/dashboard", GetDashboard)
		reporting.GET("/popularity", GetPopularity)
		reporting.GET("/locations", GetTopLocations)
		reporting.GET("/top-customers", GetTopCustomers)
		reporting.GET("/percentage-change", GetPercentageChange)
	}

	v1.POST("/reports/dashboard", middleware.ScopeGuard(cfg, middleware.ScopeExportReports), ExportDashboardReport)

	if hub != nil {
		v1.GET("/ws/changes", StreamChanges(hub))
	}
}
