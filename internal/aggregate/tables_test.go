package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airfare-dashboard/internal/models"
)

func TestBuild(t *testing.T) {
	records := append(sampleRecords(), route("M", "N", "bad", "(1,1)", 5))

	tables, err := Build(records, 0)
	require.NoError(t, err)

	assert.Len(t, tables.Yearly(), 2)
	assert.Len(t, tables.CarrierFare(), 6)
	assert.Len(t, tables.TopRoutes(), 1)
	assert.NotEmpty(t, tables.Fingerprint())

	stats := tables.Stats()
	assert.Equal(t, 7, stats.Records)
	assert.Equal(t, 7, stats.PeriodRecords)
	assert.Equal(t, 1, stats.UnroutableRecords)
	assert.Equal(t, 1, stats.Routes)
	assert.Equal(t, []int{2019, 2020}, stats.Years)

	counts := tables.RowCounts()
	for _, name := range TableNames {
		_, ok := counts[name]
		assert.True(t, ok, "missing row count for %s", name)
	}
}

func TestBuild_NoRecords(t *testing.T) {
	_, err := Build(nil, 5)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestBuild_Idempotent(t *testing.T) {
	records := sampleRecords()

	first, err := Build(records, 5)
	require.NoError(t, err)
	second, err := Build(records, 5)
	require.NoError(t, err)

	a, err := first.MarshalJSON()
	require.NoError(t, err)
	b, err := second.MarshalJSON()
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, first.Fingerprint(), second.Fingerprint())
}

func TestBuild_FingerprintChangesWithData(t *testing.T) {
	first, err := Build(sampleRecords(), 5)
	require.NoError(t, err)

	changed := sampleRecords()
	changed[0].Fare = f(999)
	second, err := Build(changed, 5)
	require.NoError(t, err)

	assert.NotEqual(t, first.Fingerprint(), second.Fingerprint())
}

func TestTables_AccessorsReturnCopies(t *testing.T) {
	tables, err := Build(sampleRecords(), 5)
	require.NoError(t, err)

	yearly := tables.Yearly()
	yearly[0].Year = 1900
	assert.Equal(t, 2019, tables.Yearly()[0].Year)

	stats := tables.Stats()
	stats.Carriers[0] = "changed"
	assert.NotEqual(t, "changed", tables.Stats().Carriers[0])
}

func TestTables_Table(t *testing.T) {
	tables, err := Build(sampleRecords(), 5)
	require.NoError(t, err)

	for _, name := range TableNames {
		_, ok := tables.Table(name)
		assert.True(t, ok, name)
	}

	_, ok := tables.Table("nope")
	assert.False(t, ok)

	rows, ok := tables.Table(TableYearly)
	require.True(t, ok)
	assert.IsType(t, []models.YearlySummary{}, rows)
}
