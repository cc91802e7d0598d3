package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"airfare-dashboard/internal/aggregate"
	"airfare-dashboard/internal/charts"
	"airfare-dashboard/internal/services"
	"airfare-dashboard/pkg/logging"
	"airfare-dashboard/pkg/metrics"
)

// Dashboard is the read side the HTTP layer serves
type Dashboard interface {
	Table(ctx context.Context, name string, carriers []string) (*services.View, error)
	Chart(ctx context.Context, tab charts.Tab, q services.ChartQuery) (*services.View, error)
	Carriers() []string
	Info() services.DatasetInfo
}

// DashboardHandler handles dashboard API endpoints
type DashboardHandler struct {
	dashboard Dashboard
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard Dashboard, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// CarriersResponse lists the carriers available for filtering
type CarriersResponse struct {
	Carriers []string `json:"carriers"`
	Total    int      `json:"total"`
}

// TabsResponse lists the chart tabs
type TabsResponse struct {
	Tabs []TabInfo `json:"tabs"`
}

// TabInfo names one chart tab
type TabInfo struct {
	ID    charts.Tab `json:"id"`
	Label string     `json:"label"`
}

// GetTable handles GET /api/tables/{name}
func (h *DashboardHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/tables/{name}"
	ctx := r.Context()
	defer h.observe(endpoint, time.Now())

	name := mux.Vars(r)["name"]
	carriers := parseCarriers(r.URL.Query().Get("carriers"))

	view, err := h.dashboard.Table(ctx, name, carriers)
	if err != nil {
		h.handleServiceError(w, r, endpoint, err, logging.Fields{
			"table":    name,
			"carriers": carriers,
		})
		return
	}

	h.sendView(w, r, endpoint, view)
}

// GetChart handles GET /api/charts/{tab}
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/charts/{tab}"
	ctx := r.Context()
	defer h.observe(endpoint, time.Now())

	tab, err := charts.ParseTab(mux.Vars(r)["tab"])
	if err != nil {
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, endpoint, "unknown chart tab, expected tab1 to tab6", http.StatusNotFound)
		return
	}

	query := services.ChartQuery{
		Carriers: parseCarriers(r.URL.Query().Get("carriers")),
	}

	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil || year <= 0 {
			h.metrics.RecordAPIError("bad_request", endpoint)
			h.sendError(w, r, endpoint, "invalid year, expected a positive integer", http.StatusBadRequest)
			return
		}
		query.Year = year
	}

	if smoothStr := r.URL.Query().Get("smooth"); smoothStr != "" {
		smooth, err := strconv.Atoi(smoothStr)
		if err != nil || !charts.ValidWindow(smooth) {
			h.metrics.RecordAPIError("bad_request", endpoint)
			h.sendError(w, r, endpoint, "invalid smooth, expected 2 or 3", http.StatusBadRequest)
			return
		}
		query.Smooth = smooth
	}

	view, err := h.dashboard.Chart(ctx, tab, query)
	if err != nil {
		h.handleServiceError(w, r, endpoint, err, logging.Fields{
			"tab":      tab,
			"carriers": query.Carriers,
			"year":     query.Year,
			"smooth":   query.Smooth,
		})
		return
	}

	h.sendView(w, r, endpoint, view)
}

// ListTabs handles GET /api/charts
func (h *DashboardHandler) ListTabs(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/charts"
	defer h.observe(endpoint, time.Now())

	response := TabsResponse{Tabs: make([]TabInfo, 0, len(charts.Tabs))}
	for _, tab := range charts.Tabs {
		response.Tabs = append(response.Tabs, TabInfo{ID: tab, Label: charts.Labels[tab]})
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetCarriers handles GET /api/carriers
func (h *DashboardHandler) GetCarriers(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/carriers"
	defer h.observe(endpoint, time.Now())

	carriers := h.dashboard.Carriers()
	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, CarriersResponse{Carriers: carriers, Total: len(carriers)}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"dataset":   h.dashboard.Info(),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

func (h *DashboardHandler) observe(endpoint string, start time.Time) {
	h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// handleServiceError maps service errors to HTTP statuses
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, endpoint string, err error, fields logging.Fields) {
	switch {
	case errors.Is(err, services.ErrUnknownTable):
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, endpoint, "unknown table, expected one of "+strings.Join(aggregate.TableNames, ", "), http.StatusNotFound)
	case errors.Is(err, services.ErrNoMatchingRecords):
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, endpoint, err.Error(), http.StatusNotFound)
	case errors.Is(err, charts.ErrUnknownYear), errors.Is(err, charts.ErrBadWindow):
		h.metrics.RecordAPIError("bad_request", endpoint)
		h.sendError(w, r, endpoint, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error(r.Context(), "[API_VIEW_ERROR] Failed to build view", fields, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, endpoint, "failed to build view", http.StatusInternalServerError)
	}
}

// sendView writes an encoded view, answering conditional requests with 304
func (h *DashboardHandler) sendView(w http.ResponseWriter, r *http.Request, endpoint string, view *services.View) {
	w.Header().Set("ETag", view.ETag)
	w.Header().Set("Cache-Control", "no-cache")

	if etagMatches(r.Header.Get("If-None-Match"), view.ETag) {
		h.metrics.RecordAPIRequest(endpoint, r.Method, "304")
		w.WriteHeader(http.StatusNotModified)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(view.Body)
}

// etagMatches applies the weak comparison of If-None-Match to a list of tags
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if candidate != "" && strings.TrimPrefix(candidate, "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}

// sendJSON sends a JSON response
func (h *DashboardHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *DashboardHandler) sendError(w http.ResponseWriter, r *http.Request, endpoint, message string, statusCode int) {
	h.metrics.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// parseCarriers splits a comma separated carrier list, dropping blanks
func parseCarriers(raw string) []string {
	if raw == "" {
		return nil
	}
	var carriers []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			carriers = append(carriers, c)
		}
	}
	return carriers
}

// RegisterRoutes registers all dashboard API routes
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/tables/{name}", h.GetTable).Methods("GET")
	router.HandleFunc("/api/charts", h.ListTabs).Methods("GET")
	router.HandleFunc("/api/charts/{tab}", h.GetChart).Methods("GET")
	router.HandleFunc("/api/carriers", h.GetCarriers).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
