package dataset

import (
	"context"
	"fmt"

	"airfare-dashboard/internal/models"
)

// FareLister is the part of the fare repository the Postgres source needs
type FareLister interface {
	ListFares(ctx context.Context) ([]models.FareRecord, error)
}

// PostgresSource reads the dataset from the fare_records table
type PostgresSource struct {
	repo FareLister
	name string
}

// NewPostgresSource creates a source backed by the fare repository
func NewPostgresSource(repo FareLister, database string) *PostgresSource {
	return &PostgresSource{repo: repo, name: database}
}

// Describe returns the source database
func (s *PostgresSource) Describe() string {
	return "postgres:" + s.name
}

// Load reads and validates every stored fare record
func (s *PostgresSource) Load(ctx context.Context) ([]models.FareRecord, error) {
	records, err := s.repo.ListFares(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fares from database: %w", err)
	}

	for i := range records {
		if err := records[i].Validate(); err != nil {
			return nil, fmt.Errorf("fare record %d: %w", i+1, err)
		}
	}

	return records, nil
}
