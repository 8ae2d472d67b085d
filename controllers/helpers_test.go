package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/loyalty-rewards-api/config"
	"github.com/kendall-kelly/loyalty-rewards-api/realtime"
	"github.com/kendall-kelly/loyalty-rewards-api/services"
	"github.com/kendall-kelly/loyalty-rewards-api/tests/testutil"
	"github.com/raulk/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv is a router wired to fresh services over an in-memory database
type testEnv struct {
	db     *gorm.DB
	hub    *realtime.Hub
	clock  *clock.Mock
	router *gin.Engine
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	config.SetDB(db)

	clk := clock.NewMock()
	clk.Set(time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local))

	hub := realtime.NewHub(nil)
	opts := services.Options{Clock: clk, Publisher: hub}

	services.SetOrderService(services.NewOrderService(db, 10, opts))
	services.SetCustomerService(services.NewCustomerService(db, opts))
	services.SetFoodService(services.NewFoodService(db, opts))
	services.SetDashboardService(services.NewDashboardService(db, nil, services.DashboardSettings{
		UnitPrice:          decimal.NewFromInt(10),
		RetentionWindow:    30 * 24 * time.Hour,
		SeparateZeroOrders: true,
	}, opts))
	services.SetSearchSequencer(services.NewSearchSequencer(clk))
	services.SetReportService(nil)

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), nil, hub)

	return &testEnv{db: db, hub: hub, clock: clk, router: router}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	}
	return w, response
}

func errorCode(response map[string]interface{}) string {
	errBody, _ := response["error"].(map[string]interface{})
	code, _ := errBody["code"].(string)
	return code
}

func dataMap(t *testing.T, response map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "data should be an object: %v", response)
	return data
}

func dataList(t *testing.T, response map[string]interface{}) []interface{} {
	t.Helper()
	data, ok := response["data"].([]interface{})
	require.True(t, ok, "data should be a list: %v", response)
	return data
}
