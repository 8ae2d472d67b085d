package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/loyalty-rewards-api/config"
	"github.com/kendall-kelly/loyalty-rewards-api/controllers"
	"github.com/kendall-kelly/loyalty-rewards-api/middleware"
	"github.com/kendall-kelly/loyalty-rewards-api/realtime"
	"github.com/kendall-kelly/loyalty-rewards-api/services"
	"github.com/kendall-kelly/loyalty-rewards-api/tests/testutil"
	"github.com/raulk/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// startServer wires every service over a fresh database and serves the API
// through the production middleware stack. auth guards /api/v1 when set.
func startServer(t *testing.T, cfg *config.Config, auth gin.HandlerFunc) (*httptest.Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	config.SetDB(db)

	clk := clock.New()
	hub := realtime.NewHub(zap.NewNop())
	opts := services.Options{Clock: clk, Publisher: hub}
	services.SetOrderService(services.NewOrderService(db, cfg.MilestoneThreshold, opts))
	services.SetCustomerService(services.NewCustomerService(db, opts))
	services.SetFoodService(services.NewFoodService(db, opts))
	services.SetSearchSequencer(services.NewSearchSequencer(clk))
	services.SetDashboardService(services.NewDashboardService(db, nil, services.DashboardSettings{
		UnitPrice:          cfg.RevenueUnitPrice,
		RetentionWindow:    cfg.RetentionWindow(),
		SeparateZeroOrders: cfg.SeparateZeroOrderBucket,
	}, opts))

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(zap.NewNop()))
	router.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Loyalty Rewards API is running"})
	})

	v1 := router.Group("/api/v1")
	if auth != nil {
		v1.Use(auth)
	}
	controllers.RegisterRoutes(v1, cfg, hub)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, db
}

// makeRequest sends a JSON request and decodes the JSON envelope
func makeRequest(t *testing.T, server *httptest.Server, method, path string, body interface{}, authHeader string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var response map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &response), string(raw))
	}
	return resp, response
}
