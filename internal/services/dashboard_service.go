package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"airfare-dashboard/internal/aggregate"
	"airfare-dashboard/internal/cache"
	"airfare-dashboard/internal/charts"
	"airfare-dashboard/internal/dataset"
	"airfare-dashboard/internal/models"
	"airfare-dashboard/pkg/logging"
	"airfare-dashboard/pkg/metrics"
)

var (
	// ErrUnknownTable is returned for a table name outside aggregate.TableNames
	ErrUnknownTable = errors.New("unknown table")
	// ErrNoMatchingRecords is returned when a carrier filter leaves nothing to aggregate
	ErrNoMatchingRecords = errors.New("no records match the carrier filter")
)

// ChartQuery selects and tunes a chart view
type ChartQuery struct {
	Carriers []string
	Year     int
	Smooth   int
}

// View is an encoded response body with its entity tag
type View struct {
	Body []byte
	ETag string
}

// DatasetInfo describes the loaded dataset
type DatasetInfo struct {
	Source      string          `json:"source"`
	LoadedAt    time.Time       `json:"loaded_at"`
	Fingerprint string          `json:"fingerprint"`
	Stats       aggregate.Stats `json:"stats"`
	RowCounts   map[string]int  `json:"row_counts"`
}

// DashboardOptions tune the dashboard service
type DashboardOptions struct {
	TopN     int
	CacheTTL time.Duration
}

// DashboardService serves derived tables and charts for one loaded dataset.
// It is read-only after construction and safe for concurrent use.
type DashboardService struct {
	records  []models.FareRecord
	tables   *aggregate.Tables
	source   string
	loadedAt time.Time
	opts     DashboardOptions
	cache    cache.Cache
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewDashboardService loads the dataset and builds the base tables.
// Any load or build failure is returned; the caller is expected to stop.
func NewDashboardService(ctx context.Context, src dataset.Source, opts DashboardOptions, c cache.Cache, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*DashboardService, error) {
	if opts.TopN <= 0 {
		opts.TopN = aggregate.DefaultTopN
	}
	if c == nil {
		c = cache.NopCache{}
	}

	s := &DashboardService{
		source:  src.Describe(),
		opts:    opts,
		cache:   c,
		logger:  logger,
		metrics: metricsCollector,
	}

	logger.Info(ctx, "[DATASET_LOAD] Loading fare dataset", logging.Fields{
		"source": s.source,
		"stage":  "START",
	})

	timer := metricsCollector.NewTimer(metricsCollector.DatasetLoadDuration)
	records, err := src.Load(ctx)
	if err != nil {
		metricsCollector.RecordDatasetError(loadErrorType(err))
		return nil, fmt.Errorf("failed to load dataset from %s: %w", s.source, err)
	}
	loadDuration := timer.ObserveDuration()

	buildTimer := metricsCollector.NewTimer(metricsCollector.AggregationDuration.WithLabelValues("startup"))
	tables, err := aggregate.Build(records, opts.TopN)
	if err != nil {
		metricsCollector.RecordDatasetError("build")
		return nil, fmt.Errorf("failed to build derived tables: %w", err)
	}
	buildTimer.ObserveDuration()

	s.records = records
	s.tables = tables
	s.loadedAt = time.Now().UTC()

	stats := tables.Stats()
	metricsCollector.DatasetRecordsLoaded.Set(float64(stats.Records))
	metricsCollector.DatasetUnroutableRows.Set(float64(stats.UnroutableRecords))
	metricsCollector.RecordTableRows(tables.RowCounts())

	logger.Info(ctx, "[DATASET_LOAD] Fare dataset ready", logging.Fields{
		"source":             s.source,
		"records":            stats.Records,
		"period_records":     stats.PeriodRecords,
		"unroutable_records": stats.UnroutableRecords,
		"routes":             stats.Routes,
		"carriers":           len(stats.Carriers),
		"fingerprint":        tables.Fingerprint(),
		"duration_ms":        loadDuration.Milliseconds(),
		"stage":              "COMPLETE",
	})
	if stats.UnroutableRecords > 0 {
		logger.Warn(ctx, "[DATASET_LOAD] Rows excluded from route totals", logging.Fields{
			"unroutable_records": stats.UnroutableRecords,
		})
	}

	return s, nil
}

func loadErrorType(err error) string {
	var schemaErr *dataset.SchemaError
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &schemaErr):
		return "schema"
	case errors.As(err, &validationErr):
		return "validation"
	default:
		return "source"
	}
}

// Tables returns the base tables built from the full dataset
func (s *DashboardService) Tables() *aggregate.Tables {
	return s.tables
}

// Carriers returns the distinct carrier names, sorted
func (s *DashboardService) Carriers() []string {
	return s.tables.Stats().Carriers
}

// Info describes the loaded dataset
func (s *DashboardService) Info() DatasetInfo {
	return DatasetInfo{
		Source:      s.source,
		LoadedAt:    s.loadedAt,
		Fingerprint: s.tables.Fingerprint(),
		Stats:       s.tables.Stats(),
		RowCounts:   s.tables.RowCounts(),
	}
}

// Table returns the encoded rows of one derived table, optionally restricted to carriers
func (s *DashboardService) Table(ctx context.Context, name string, carriers []string) (*View, error) {
	if !slices.Contains(aggregate.TableNames, name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}

	carriers = normalizeCarriers(carriers)
	key := cache.Key(s.tables.Fingerprint(), "table", name, strings.Join(carriers, ","))

	return s.cached(ctx, key, func() (interface{}, error) {
		tables, err := s.tablesFor(ctx, "table", carriers)
		if err != nil {
			return nil, err
		}
		rows, _ := tables.Table(name)
		return rows, nil
	})
}

// Chart returns the encoded chart description of a tab
func (s *DashboardService) Chart(ctx context.Context, tab charts.Tab, q ChartQuery) (*View, error) {
	carriers := normalizeCarriers(q.Carriers)
	key := cache.Key(s.tables.Fingerprint(), "chart", string(tab), strings.Join(carriers, ","),
		strconv.Itoa(q.Year), strconv.Itoa(q.Smooth))

	return s.cached(ctx, key, func() (interface{}, error) {
		tables, err := s.tablesFor(ctx, "chart", carriers)
		if err != nil {
			return nil, err
		}
		return charts.Render(tab, tables, charts.Options{Year: q.Year, Smooth: q.Smooth})
	})
}

// tablesFor returns the base tables, or tables rebuilt from the carrier-filtered records
func (s *DashboardService) tablesFor(ctx context.Context, view string, carriers []string) (*aggregate.Tables, error) {
	if len(carriers) == 0 {
		return s.tables, nil
	}

	timer := s.metrics.NewTimer(s.metrics.AggregationDuration.WithLabelValues("filtered"))
	defer timer.ObserveDuration()
	s.metrics.FilteredRecomputesTotal.WithLabelValues(view).Inc()

	filtered := aggregate.FilterCarriers(s.records, carriers)
	if len(filtered) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatchingRecords, strings.Join(carriers, ", "))
	}

	tables, err := aggregate.Build(filtered, s.opts.TopN)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild tables for carriers: %w", err)
	}

	s.logger.Debug(ctx, "[AGGREGATE_FILTERED] Rebuilt tables for carrier filter", logging.Fields{
		"view":     view,
		"carriers": carriers,
		"records":  len(filtered),
	})
	return tables, nil
}

// cached serves key from the cache or encodes build's result and stores it
func (s *DashboardService) cached(ctx context.Context, key string, build func() (interface{}, error)) (*View, error) {
	body, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		s.metrics.CacheHitsTotal.Inc()
		return newView(body), nil
	case errors.Is(err, cache.ErrMiss):
		s.metrics.CacheMissesTotal.Inc()
	default:
		s.metrics.RecordCacheError("get")
		s.logger.Warn(ctx, "[CACHE_ERROR] Cache read failed, computing view", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
	}

	value, err := build()
	if err != nil {
		return nil, err
	}

	body, err = json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode view: %w", err)
	}

	if err := s.cache.Set(ctx, key, body, s.opts.CacheTTL); err != nil {
		s.metrics.RecordCacheError("set")
		s.logger.Warn(ctx, "[CACHE_ERROR] Cache write failed", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
	}

	return newView(body), nil
}

func newView(body []byte) *View {
	return &View{
		Body: body,
		ETag: fmt.Sprintf(`"%016x"`, xxhash.Sum64(body)),
	}
}

// normalizeCarriers trims, dedupes and sorts carrier names so equal filters share a key
func normalizeCarriers(carriers []string) []string {
	out := make([]string, 0, len(carriers))
	for _, c := range carriers {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
