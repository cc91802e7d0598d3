package repository

import (
	"context"
	"fmt"
	"time"

	"airfare-dashboard/internal/models"
	"airfare-dashboard/pkg/database"
	"airfare-dashboard/pkg/logging"
	"airfare-dashboard/pkg/metrics"
)

// FareRepository provides data access for the fare dataset table
type FareRepository interface {
	CreateFaresBatch(ctx context.Context, records []models.FareRecord) error
	ListFares(ctx context.Context) ([]models.FareRecord, error)
	CountFares(ctx context.Context) (int, error)
	Truncate(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}

// fareRepository implements FareRepository on PostgreSQL
type fareRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewFareRepository creates a new fare repository
func NewFareRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) FareRepository {
	return &fareRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

const insertFare = `
	INSERT INTO fare_records (
		carrier, carrier_full, year, quarter,
		city1, city2, geocoded_city1, geocoded_city2,
		fare, passengers, large_ms
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

// CreateFaresBatch inserts records in a single transaction
func (r *fareRepository) CreateFaresBatch(ctx context.Context, records []models.FareRecord) error {
	if len(records) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		r.metrics.IngestionBatchSize.Observe(float64(len(records)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(records),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertFare)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		_, err := stmt.ExecContext(ctx,
			rec.Carrier,
			rec.CarrierName,
			nullableInt(rec.Year),
			nullableInt(rec.Quarter),
			rec.City1,
			rec.City2,
			rec.Geocoded1,
			rec.Geocoded2,
			rec.Fare,
			rec.Passengers,
			rec.LargeMS,
		)
		if err != nil {
			return fmt.Errorf("failed to insert fare record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListFares returns every stored record in insertion order
func (r *fareRepository) ListFares(ctx context.Context) ([]models.FareRecord, error) {
	query := `
		SELECT carrier, carrier_full,
		       COALESCE(year, 0) AS year, COALESCE(quarter, 0) AS quarter,
		       city1, city2, geocoded_city1, geocoded_city2,
		       fare, passengers, large_ms
		FROM fare_records
		ORDER BY id
	`

	var records []models.FareRecord
	if err := r.db.SelectContext(ctx, "list_fares", &records, query); err != nil {
		return nil, fmt.Errorf("failed to list fares: %w", err)
	}
	return records, nil
}

// CountFares returns the number of stored records
func (r *fareRepository) CountFares(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, "count_fares", &n, `SELECT COUNT(*) FROM fare_records`); err != nil {
		return 0, fmt.Errorf("failed to count fares: %w", err)
	}
	return n, nil
}

// Truncate removes every stored record
func (r *fareRepository) Truncate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "truncate_fares", `TRUNCATE fare_records RESTART IDENTITY`); err != nil {
		return fmt.Errorf("failed to truncate fares: %w", err)
	}
	return nil
}

// HealthCheck performs a repository health check
func (r *fareRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// nullableInt stores absent year/quarter values as NULL
func nullableInt(v int) interface{} {
	if v == 0 {
		return nil
	}
	return v
}
