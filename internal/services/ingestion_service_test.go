package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airfare-dashboard/internal/models"
)

type fakeRepo struct {
	batches   [][]models.FareRecord
	truncated bool
	failAt    int
}

func (r *fakeRepo) CreateFaresBatch(ctx context.Context, records []models.FareRecord) error {
	if r.failAt > 0 && len(r.batches)+1 == r.failAt {
		return errors.New("deadlock detected")
	}
	r.batches = append(r.batches, append([]models.FareRecord(nil), records...))
	return nil
}

func (r *fakeRepo) ListFares(ctx context.Context) ([]models.FareRecord, error) {
	var out []models.FareRecord
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out, nil
}

func (r *fakeRepo) CountFares(ctx context.Context) (int, error) {
	records, _ := r.ListFares(ctx)
	return len(records), nil
}

func (r *fakeRepo) Truncate(ctx context.Context) error {
	r.truncated = true
	r.batches = nil
	return nil
}

func (r *fakeRepo) HealthCheck(ctx context.Context) error { return nil }

func TestIngest_Batches(t *testing.T) {
	logger, m := testDeps()
	repo := &fakeRepo{}
	svc := NewIngestionService(repo, logger, m)

	result, err := svc.Ingest(context.Background(), &fakeSource{records: testRecords()}, IngestionOptions{BatchSize: 3, Truncate: true})
	require.NoError(t, err)

	assert.True(t, repo.truncated)
	assert.Equal(t, 4, result.TotalRecords)
	assert.Equal(t, 4, result.SuccessfulRecords)
	assert.Equal(t, 2, result.Batches)
	require.Len(t, repo.batches, 2)
	assert.Len(t, repo.batches[0], 3)
	assert.Len(t, repo.batches[1], 1)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.IngestionRecordsTotal))

	stored, err := repo.ListFares(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testRecords(), stored)
}

func TestIngest_KeepsExistingRows(t *testing.T) {
	logger, m := testDeps()
	repo := &fakeRepo{batches: [][]models.FareRecord{testRecords()[:1]}}
	svc := NewIngestionService(repo, logger, m)

	result, err := svc.Ingest(context.Background(), &fakeSource{records: testRecords()}, IngestionOptions{})
	require.NoError(t, err)

	assert.False(t, repo.truncated)
	assert.Equal(t, 4, result.SuccessfulRecords)
	assert.Equal(t, 1, result.Batches)

	stored, err := repo.CountFares(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stored)
}

func TestIngest_Errors(t *testing.T) {
	logger, m := testDeps()

	t.Run("load failure", func(t *testing.T) {
		svc := NewIngestionService(&fakeRepo{}, logger, m)
		_, err := svc.Ingest(context.Background(), &fakeSource{err: errors.New("404")}, IngestionOptions{})
		assert.ErrorContains(t, err, "failed to load dataset")
	})

	t.Run("batch failure", func(t *testing.T) {
		svc := NewIngestionService(&fakeRepo{failAt: 2}, logger, m)
		_, err := svc.Ingest(context.Background(), &fakeSource{records: testRecords()}, IngestionOptions{BatchSize: 2})
		assert.ErrorContains(t, err, "failed to insert batch 2")
	})
}
