package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"airfare-dashboard/internal/config"
	"airfare-dashboard/internal/dataset"
	"airfare-dashboard/internal/repository"
	"airfare-dashboard/internal/services"
	"airfare-dashboard/pkg/database"
	"airfare-dashboard/pkg/logging"
	"airfare-dashboard/pkg/metrics"
)

func main() {
	// Load configuration first so the source flag can default to it
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	source := flag.String("source", cfg.Dataset.Location, "CSV URL or file path of the fare dataset")
	batchSize := flag.Int("batch-size", services.DefaultBatchSize, "Number of records to insert per transaction")
	truncate := flag.Bool("truncate", false, "Empty the fare table before loading")
	verify := flag.Bool("verify", true, "Count stored rows after loading")
	flag.Parse()

	logger := logging.NewStructuredLogger("airfare-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting fare data ingestion", logging.Fields{
		"version":    "1.0.0",
		"source":     *source,
		"batch_size": *batchSize,
		"truncate":   *truncate,
	})

	metricsCollector := metrics.NewCollector("airfare_ingester", prometheus.NewRegistry())

	db, err := database.NewPostgresDB(cfg.Database.Pool(), logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	fareRepo := repository.NewFareRepository(db, logger, metricsCollector)
	ingestionService := services.NewIngestionService(fareRepo, logger, metricsCollector)

	result, err := ingestionService.Ingest(ctx, dataset.NewCSVSource(*source, cfg.Dataset.FetchTimeout), services.IngestionOptions{
		BatchSize: *batchSize,
		Truncate:  *truncate,
	})
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"source": *source,
		}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Source:             %s\n", result.Source)
	fmt.Printf("Total Records:      %d\n", result.TotalRecords)
	fmt.Printf("Successful Records: %d\n", result.SuccessfulRecords)
	fmt.Printf("Batches:            %d\n", result.Batches)
	fmt.Printf("Duration:           %v\n", result.Duration)

	if *verify {
		stored, err := fareRepo.CountFares(ctx)
		if err != nil {
			logger.Error(ctx, "[VERIFY_ERROR] Failed to count stored fares", logging.Fields{}, err)
		} else {
			fmt.Printf("Stored Rows:        %d\n", stored)
		}
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"duration_seconds":   result.Duration.Seconds(),
	})
}
