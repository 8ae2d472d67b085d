package integration

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/loyalty-rewards-api/config"
	"github.com/kendall-kelly/loyalty-rewards-api/controllers"
	"github.com/kendall-kelly/loyalty-rewards-api/realtime"
	"github.com/kendall-kelly/loyalty-rewards-api/services"
	"github.com/raulk/clock"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// wireServices installs fresh service instances over db and returns the change hub
func wireServices(db *gorm.DB, cache services.DashboardCache, clk clock.Clock, threshold int) *realtime.Hub {
	config.SetDB(db)

	hub := realtime.NewHub(nil)
	opts := services.Options{Clock: clk, Publisher: hub}

	services.SetOrderService(services.NewOrderService(db, threshold, opts))
	services.SetCustomerService(services.NewCustomerService(db, opts))
	services.SetFoodService(services.NewFoodService(db, opts))
	services.SetSearchSequencer(services.NewSearchSequencer(clk))

	dashboard := services.NewDashboardService(db, cache, services.DashboardSettings{
		UnitPrice:          decimal.RequireFromString("2.50"),
		RetentionWindow:    30 * 24 * time.Hour,
		SeparateZeroOrders: true,
	}, opts)
	services.SetDashboardService(dashboard)
	hub.Subscribe(dashboard.ChangeListener())
	return hub
}

// newRouter mounts the API behind the given auth middleware
func newRouter(cfg *config.Config, hub *realtime.Hub, auth gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	v1 := router.Group("/api/v1")
	if auth != nil {
		v1.Use(auth)
	}
	controllers.RegisterRoutes(v1, cfg, hub)
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func orderBody(customerCode string, lines ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"customer_code": customerCode, "items": lines}
}

func line(code, name string, quantity int) map[string]interface{} {
	return map[string]interface{}{"code": code, "name": name, "quantity": quantity}
}
