package controllers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/kendall-kelly/loyalty-rewards-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportDashboardReport(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		failPuts       bool
		expectedStatus int
		expectedCode   string
		expectedSuffix string
	}{
		{name: "JSON by default", expectedStatus: http.StatusCreated, expectedSuffix: ".json"},
		{name: "CSV", query: "?format=CSV", expectedStatus: http.StatusCreated, expectedSuffix: ".csv"},
		{name: "Unknown format", query: "?format=xml", expectedStatus: http.StatusBadRequest, expectedCode: "INVALID_REPORT_FORMAT"},
		{name: "Bad range", query: "?start=yesterday", expectedStatus: http.StatusBadRequest, expectedCode: "VALIDATION_ERROR"},
		{name: "Upload fails", failPuts: true, expectedStatus: http.StatusInternalServerError, expectedCode: "REPORT_EXPORT_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			seedOrders(t, env.db)

			mockS3 := services.NewMockS3Service()
			mockS3.FailPuts = tt.failPuts
			services.SetReportService(services.InitReportService(mockS3, env.clock))
			t.Cleanup(func() { services.SetReportService(nil) })

			w, response := env.do(t, http.MethodPost, "/api/v1/reports/dashboard"+tt.query, nil)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(response))
				assert.Empty(t, mockS3.Keys())
				return
			}

			data := dataMap(t, response)
			key := data["key"].(string)
			assert.True(t, strings.HasPrefix(key, "reports/2024-03-10/"), key)
			assert.True(t, strings.HasSuffix(key, tt.expectedSuffix), key)
			assert.NotEmpty(t, data["url"])
			assert.Equal(t, []string{key}, mockS3.Keys())
		})
	}
}

func TestExportDashboardReportDisabled(t *testing.T) {
	env := setupTestEnv(t)

	w, response := env.do(t, http.MethodPost, "/api/v1/reports/dashboard", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "REPORTS_DISABLED", errorCode(response))
}
