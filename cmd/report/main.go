package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"airfare-dashboard/internal/aggregate"
	"airfare-dashboard/internal/config"
	"airfare-dashboard/internal/dataset"
	"airfare-dashboard/pkg/logging"
)

func main() {
	source := flag.String("source", config.DefaultDatasetURL, "CSV URL or file path of the fare dataset")
	top := flag.Int("top", aggregate.DefaultTopN, "Number of routes to rank")
	timeout := flag.Duration("timeout", 60*time.Second, "HTTP fetch timeout")
	asJSON := flag.Bool("json", false, "Dump every derived table as JSON")
	flag.Parse()

	logger := logging.NewStructuredLogger("airfare-report", "1.0.0", logging.WarnLevel)
	logger.SetOutput(os.Stderr)
	ctx := context.Background()

	records, err := dataset.NewCSVSource(*source, *timeout).Load(ctx)
	if err != nil {
		logger.Fatal(ctx, "[REPORT_ERROR] Failed to load dataset", logging.Fields{"source": *source}, err)
	}

	tables, err := aggregate.Build(records, *top)
	if err != nil {
		logger.Fatal(ctx, "[REPORT_ERROR] Failed to build tables", logging.Fields{"source": *source}, err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tables); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode tables: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := writeReport(os.Stdout, *source, tables); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write report: %v\n", err)
		os.Exit(1)
	}
}
