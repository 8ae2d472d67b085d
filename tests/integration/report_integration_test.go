package integration

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/loyalty-rewards-api/config"
	"github.com/kendall-kelly/loyalty-rewards-api/services"
	"github.com/kendall-kelly/loyalty-rewards-api/tests/testutil"
	"github.com/raulk/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// ReportIntegrationTestSuite exports dashboards to a mock S3 bucket
type ReportIntegrationTestSuite struct {
	suite.Suite
	router *gin.Engine
	mockS3 *services.MockS3Service
}

func (suite *ReportIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	testutil.SetTestEnv(suite.T())
}

func (suite *ReportIntegrationTestSuite) SetupTest() {
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 7, 15, 8, 30, 0, 0, time.Local))

	db := testutil.NewTestDB(suite.T())
	hub := wireServices(db, nil, clk, 10)

	suite.mockS3 = services.NewMockS3Service()
	suite.mockS3.SetAsMockForTesting()
	services.SetReportService(services.InitReportService(suite.mockS3, clk))

	suite.router = newRouter(&config.Config{}, hub, nil)

	testutil.CreateCustomer(suite.T(), db, "C001", "Alice")
	w, _ := doJSON(suite.router, http.MethodPost, "/api/v1/orders", orderBody("C001", line("K1", "Cake", 4), line("T1", "Tea", 2)))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
}

func (suite *ReportIntegrationTestSuite) TearDownTest() {
	services.SetReportService(nil)
	suite.mockS3.Clear()
}

func (suite *ReportIntegrationTestSuite) export(query string) (string, []byte, string) {
	w, response := doJSON(suite.router, http.MethodPost, "/api/v1/reports/dashboard"+query, nil)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	key := response["data"].(map[string]interface{})["key"].(string)
	body, contentType, ok := suite.mockS3.Object(key)
	suite.Require().True(ok, "report %s should be uploaded", key)
	return key, body, contentType
}

func (suite *ReportIntegrationTestSuite) TestExportJSON() {
	key, body, contentType := suite.export("?start=2024-07-01&end=2024-07-31")

	suite.True(strings.HasPrefix(key, "reports/2024-07-15/"))
	suite.Equal("application/json", contentType)

	var report struct {
		Range struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"range"`
		Summary struct {
			Quantity int    `json:"quantity"`
			Revenue  string `json:"revenue"`
		} `json:"summary"`
	}
	suite.Require().NoError(json.Unmarshal(body, &report))
	suite.Equal("2024-07-01", report.Range.Start)
	suite.Equal(6, report.Summary.Quantity)
	suite.Equal("15", report.Summary.Revenue)
}

func (suite *ReportIntegrationTestSuite) TestExportCSV() {
	key, body, contentType := suite.export("?format=csv")

	suite.True(strings.HasSuffix(key, ".csv"))
	suite.Contains(contentType, "text/csv")

	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	suite.Require().NoError(err)
	suite.Equal([]string{"section", "label", "value"}, rows[0])

	found := false
	for _, row := range rows {
		if row[0] == "popularity" && row[1] == "Cake" {
			found = true
			assert.Equal(suite.T(), "4", row[2])
		}
	}
	suite.True(found, "popularity rows should list Cake")
}

func (suite *ReportIntegrationTestSuite) TestExportRejectsUnknownFormat() {
	w, response := doJSON(suite.router, http.MethodPost, "/api/v1/reports/dashboard?format=pdf", nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("INVALID_REPORT_FORMAT", response["error"].(map[string]interface{})["code"])
	suite.Empty(suite.mockS3.Keys())
}

func TestReportIntegrationSuite(t *testing.T) {
	suite.Run(t, new(ReportIntegrationTestSuite))
}
