package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airfare-dashboard/internal/cache"
	"airfare-dashboard/internal/charts"
	"airfare-dashboard/internal/models"
	"airfare-dashboard/internal/services"
	"airfare-dashboard/pkg/logging"
	"airfare-dashboard/pkg/metrics"
)

type staticSource struct {
	records []models.FareRecord
}

func (s staticSource) Load(ctx context.Context) ([]models.FareRecord, error) { return s.records, nil }

func (s staticSource) Describe() string { return "static" }

func f(v float64) *float64 { return &v }

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	logger := logging.NewStructuredLogger("test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	m := metrics.NewCollector("test", prometheus.NewRegistry())

	records := []models.FareRecord{
		{CarrierName: "Delta", Year: 2019, Quarter: 1, City1: "Atlanta", City2: "Boston",
			Geocoded1: "(33.7, -84.4)", Geocoded2: "(42.4, -71.1)", Fare: f(200), Passengers: 100, LargeMS: f(60)},
		{CarrierName: "United", Year: 2020, Quarter: 2, City1: "Denver", City2: "Chicago",
			Geocoded1: "(39.7, -105.0)", Geocoded2: "(41.9, -87.6)", Fare: f(150), Passengers: 300, LargeMS: f(40)},
	}

	svc, err := services.NewDashboardService(context.Background(), staticSource{records: records},
		services.DashboardOptions{TopN: 5, CacheTTL: time.Minute}, cache.NewMemoryCache(32), logger, m)
	require.NoError(t, err)

	router := mux.NewRouter()
	router.Use(RequestID, AccessLog(logger))
	NewDashboardHandler(svc, logger, m).RegisterRoutes(router)
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI("Airfare Dashboard API Documentation", "/api/docs/openapi.json")).Methods("GET")
	return router
}

func get(t *testing.T, router http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetTable(t *testing.T) {
	router := newTestRouter(t)

	rec := get(t, router, "/api/tables/yearly", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	var rows []models.YearlySummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 2019, rows[0].Year)
}

func TestGetTable_Filtered(t *testing.T) {
	router := newTestRouter(t)

	rec := get(t, router, "/api/tables/carrier-fare?carriers=United", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []models.CarrierYearFare
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "United", rows[0].Carrier)
}

func TestGetTable_NotModified(t *testing.T) {
	router := newTestRouter(t)

	first := get(t, router, "/api/tables/top-routes", nil)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")

	second := get(t, router, "/api/tables/top-routes", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, second.Code)
	assert.Empty(t, second.Body.Bytes())
}

func TestGetTable_ConditionalForms(t *testing.T) {
	router := newTestRouter(t)

	etag := get(t, router, "/api/tables/yearly", nil).Header().Get("ETag")
	require.NotEmpty(t, etag)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"exact", etag, http.StatusNotModified},
		{"weak prefix", "W/" + etag, http.StatusNotModified},
		{"list", `"0000000000000000", ` + etag, http.StatusNotModified},
		{"wildcard", "*", http.StatusNotModified},
		{"stale", `"0000000000000000"`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, "/api/tables/yearly", http.Header{"If-None-Match": {tt.header}})
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestEtagMatches(t *testing.T) {
	tests := []struct {
		header string
		etag   string
		want   bool
	}{
		{"", `"abc"`, false},
		{`"abc"`, `"abc"`, true},
		{`W/"abc"`, `"abc"`, true},
		{`"x", W/"abc"`, `"abc"`, true},
		{`"x","y"`, `"abc"`, false},
		{" * ", `"abc"`, true},
		{`"abcd"`, `"abc"`, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, etagMatches(tt.header, tt.etag), "header %q", tt.header)
	}
}

func TestErrorResponses(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown table", "/api/tables/weather", http.StatusNotFound},
		{"no matching carriers", "/api/tables/yearly?carriers=Nowhere%20Air", http.StatusNotFound},
		{"unknown tab", "/api/charts/tab7", http.StatusNotFound},
		{"non-numeric year", "/api/charts/tab5?year=abc", http.StatusBadRequest},
		{"year not in data", "/api/charts/tab5?year=1990", http.StatusBadRequest},
		{"bad smooth", "/api/charts/tab1?smooth=4", http.StatusBadRequest},
		{"non-numeric smooth", "/api/charts/tab1?smooth=x", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.target, nil)
			require.Equal(t, tt.status, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Code)
			assert.Equal(t, http.StatusText(tt.status), resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestGetChart(t *testing.T) {
	router := newTestRouter(t)

	rec := get(t, router, "/api/charts/tab1?smooth=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var chart charts.Chart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chart))
	assert.Equal(t, charts.TabYearlyFare, chart.Tab)
	require.Len(t, chart.Series, 1)
	assert.Len(t, chart.Series[0].Smoothed, 2)

	rec = get(t, router, "/api/charts/tab5?year=2020", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chart))
	assert.Equal(t, "Quarterly Market Share by Airline for 2020", chart.Title)
}

func TestListTabs(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/charts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TabsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tabs, len(charts.Tabs))
	assert.Equal(t, charts.TabYearlyFare, resp.Tabs[0].ID)
}

func TestGetCarriers(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/carriers", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CarriersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Delta", "United"}, resp.Carriers)
	assert.Equal(t, 2, resp.Total)
}

func TestHealthCheck(t *testing.T) {
	rec := get(t, newTestRouter(t), "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Contains(t, resp, "dataset")
}

func TestRequestID(t *testing.T) {
	router := newTestRouter(t)

	rec := get(t, router, "/health", nil)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	rec = get(t, router, "/health", http.Header{RequestIDHeader: {"abc-123"}})
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRequestID_InContext(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "req-1", seen)
}

func TestDocs(t *testing.T) {
	router := newTestRouter(t)

	rec := get(t, router, "/api/docs/openapi.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/api/tables/{name}")
	assert.Contains(t, paths, "/api/charts/{tab}")

	rec = get(t, router, "/api/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Airfare Dashboard API Documentation</title>")
	assert.Contains(t, rec.Body.String(), "openapi.json")

	again := get(t, router, "/api/docs", nil)
	assert.Equal(t, rec.Body.String(), again.Body.String())
}
