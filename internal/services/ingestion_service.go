package services

import (
	"context"
	"fmt"
	"time"

	"airfare-dashboard/internal/dataset"
	"airfare-dashboard/internal/models"
	"airfare-dashboard/internal/repository"
	"airfare-dashboard/pkg/logging"
	"airfare-dashboard/pkg/metrics"
)

// DefaultBatchSize is the number of rows written per transaction
const DefaultBatchSize = 1000

// IngestionService copies a fare dataset into the database
type IngestionService struct {
	repo    repository.FareRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionOptions controls an ingestion run
type IngestionOptions struct {
	BatchSize int
	// Truncate empties the fare table before loading
	Truncate bool
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	Source            string
	TotalRecords      int
	SuccessfulRecords int
	Batches           int
	Duration          time.Duration
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.FareRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Ingest loads src and writes its records in batches
func (s *IngestionService) Ingest(ctx context.Context, src dataset.Source, opts IngestionOptions) (*IngestionResult, error) {
	startTime := time.Now()
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	result := &IngestionResult{
		Source: src.Describe(),
	}

	s.logger.Info(ctx, "[INGEST_START] Starting fare ingestion", logging.Fields{
		"source":     result.Source,
		"batch_size": opts.BatchSize,
		"truncate":   opts.Truncate,
		"stage":      "INITIALIZATION",
	})

	records, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	result.TotalRecords = len(records)

	if opts.Truncate {
		if err := s.repo.Truncate(ctx); err != nil {
			return nil, fmt.Errorf("failed to truncate fare table: %w", err)
		}
		s.logger.Info(ctx, "[INGEST_TRUNCATE] Fare table emptied", logging.Fields{
			"stage": "TRUNCATE",
		})
	}

	batch := make([]models.FareRecord, 0, opts.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.repo.CreateFaresBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to insert batch %d: %w", result.Batches+1, err)
		}
		result.Batches++
		result.SuccessfulRecords += len(batch)
		s.metrics.IngestionRecordsTotal.Add(float64(len(batch)))
		batch = batch[:0]
		return nil
	}

	// Sources reject invalid records during Load
	for i := range records {
		batch = append(batch, records[i])
		if len(batch) >= opts.BatchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(startTime)

	s.logger.Info(ctx, "[INGEST_COMPLETE] Fare ingestion completed", logging.Fields{
		"source":             result.Source,
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"batches":            result.Batches,
		"duration_seconds":   result.Duration.Seconds(),
		"stage":              "COMPLETE",
	})

	return result, nil
}
