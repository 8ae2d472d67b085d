package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/kendall-kelly/loyalty-rewards-api/models"
	"github.com/kendall-kelly/loyalty-rewards-api/services"
	"github.com/kendall-kelly/loyalty-rewards-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCustomer(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Creates customer",
			body:           map[string]interface{}{"customer_code": "C010", "name": "Bob", "email": "bob@example.com", "date_of_birth": "1990-05-01"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Missing name",
			body:           map[string]interface{}{"customer_code": "C010"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "Invalid email",
			body:           map[string]interface{}{"name": "Bob", "email": "not-an-email"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "Invalid birthday",
			body:           map[string]interface{}{"name": "Bob", "date_of_birth": "01/05/1990"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "Duplicate code",
			body:           map[string]interface{}{"customer_code": "C001", "name": "Bob"},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CUSTOMER_CODE_EXISTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			testutil.CreateCustomer(t, env.db, "C001", "Alice")

			w, response := env.do(t, http.MethodPost, "/api/v1/customers", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(response))
				return
			}
			data := dataMap(t, response)
			assert.Equal(t, "Bob", data["name"])
			assert.NotZero(t, data["id"])
		})
	}
}

func TestCreateCustomerGeneratesCode(t *testing.T) {
	env := setupTestEnv(t)

	w, response := env.do(t, http.MethodPost, "/api/v1/customers", map[string]interface{}{"name": "Carol"})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, dataMap(t, response)["customer_code"])
}

func TestListCustomersPaginates(t *testing.T) {
	env := setupTestEnv(t)
	for i := 1; i <= 12; i++ {
		testutil.CreateCustomer(t, env.db, fmt.Sprintf("C%03d", i), fmt.Sprintf("Customer %d", i))
	}

	w, response := env.do(t, http.MethodGet, "/api/v1/customers?page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := dataMap(t, response)
	assert.Equal(t, float64(12), data["total"])
	assert.Equal(t, float64(2), data["total_pages"])
	assert.Len(t, data["items"], 2)

	w, _ = env.do(t, http.MethodGet, "/api/v1/customers?page=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/v1/customers?page_size=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListCustomersSearch(t *testing.T) {
	env := setupTestEnv(t)
	testutil.CreateCustomer(t, env.db, "C001", "Alice Smith")
	testutil.CreateCustomer(t, env.db, "C002", "Bob Jones")

	w, response := env.do(t, http.MethodGet, "/api/v1/customers?search=SMITH", nil)
	require.Equal(t, http.StatusOK, w.Code)

	items := dataMap(t, response)["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Alice Smith", items[0].(map[string]interface{})["name"])
}

func TestSearchCustomers(t *testing.T) {
	env := setupTestEnv(t)
	testutil.CreateCustomer(t, env.db, "C001", "Alice")
	testutil.CreateCustomer(t, env.db, "C002", "Alfred")
	testutil.CreateCustomer(t, env.db, "D001", "Bob")

	w, response := env.do(t, http.MethodGet, "/api/v1/customers/search?q=c0&field=code", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataList(t, response), 2)
	assert.Equal(t, false, response["stale"])

	w, response = env.do(t, http.MethodGet, "/api/v1/customers/search?q=al&field=name", nil)
	require.Equal(t, http.StatusOK, w.Code)
	names := dataList(t, response)
	require.Len(t, names, 2)
	assert.Equal(t, "Alfred", names[0].(map[string]interface{})["name"])

	w, response = env.do(t, http.MethodGet, "/api/v1/customers/search?q=al&field=email", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(response))
}

func TestSearchCustomersMarksSupersededResponsesStale(t *testing.T) {
	env := setupTestEnv(t)
	testutil.CreateCustomer(t, env.db, "C001", "Alice")

	_, latest := env.do(t, http.MethodGet, "/api/v1/customers/search?q=a&seq=2", nil, services.SessionHeader, "tab-1")
	assert.Equal(t, false, latest["stale"])
	assert.Equal(t, float64(2), latest["seq"])

	_, older := env.do(t, http.MethodGet, "/api/v1/customers/search?q=al&seq=1", nil, services.SessionHeader, "tab-1")
	assert.Equal(t, true, older["stale"])

	_, otherTab := env.do(t, http.MethodGet, "/api/v1/customers/search?q=al&seq=1", nil, services.SessionHeader, "tab-2")
	assert.Equal(t, false, otherTab["stale"])
}

func TestGetUpdateDeleteCustomer(t *testing.T) {
	env := setupTestEnv(t)
	customer := testutil.CreateCustomer(t, env.db, "C001", "Alice")
	path := fmt.Sprintf("/api/v1/customers/%d", customer.ID)

	w, response := env.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "C001", dataMap(t, response)["customer_code"])

	w, response = env.do(t, http.MethodPut, path, map[string]interface{}{"name": "Alice B", "address": "Main St"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataMap(t, response)
	assert.Equal(t, "Alice B", data["name"])
	assert.Equal(t, "Main St", data["address"])
	assert.Equal(t, "C001", data["customer_code"], "a blank code leaves the existing one")

	w, _ = env.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, testutil.CountRows(t, env.db, &models.Customer{}))

	w, response = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CUSTOMER_NOT_FOUND", errorCode(response))
}

func TestGetCustomerInvalidID(t *testing.T) {
	env := setupTestEnv(t)

	w, response := env.do(t, http.MethodGet, "/api/v1/customers/abc", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(response))
}

func TestCustomerHistoryAndMilestones(t *testing.T) {
	env := setupTestEnv(t)
	customer := testutil.CreateCustomer(t, env.db, "C001", "Alice")

	w, _ := env.do(t, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"customer_code": "C001",
		"items": []map[string]interface{}{
			{"code": "T1", "name": "Tea", "quantity": 3},
			{"code": "K1", "name": "Cake", "quantity": 12},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = env.do(t, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"customer_code": "C001",
		"items":         []map[string]interface{}{{"code": "T1", "name": "Tea", "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, response := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/customers/%d/orders", customer.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := dataList(t, response)
	require.Len(t, history, 2)
	tea := history[0].(map[string]interface{})
	assert.Equal(t, "Tea", tea["food_item"])
	assert.Equal(t, float64(4), tea["quantity"])
	assert.Equal(t, float64(2), tea["orders"])

	w, response = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/customers/%d/milestones", customer.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, response)
	assert.Equal(t, float64(10), data["threshold"])
	progress := data["milestones"].([]interface{})
	require.Len(t, progress, 2)
	cake := progress[0].(map[string]interface{})
	assert.Equal(t, "Cake", cake["food_item"])
	assert.Equal(t, float64(12), cake["count"])
	assert.Equal(t, float64(20), cake["next_milestone"])
	assert.Equal(t, float64(8), cake["remaining"])

	w, _ = env.do(t, http.MethodGet, "/api/v1/customers/999/milestones", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
