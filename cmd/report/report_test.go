package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airfare-dashboard/internal/aggregate"
	"airfare-dashboard/internal/models"
)

func TestWriteReport(t *testing.T) {
	fare := 210.5
	share := 55.0
	records := []models.FareRecord{
		{CarrierName: "Delta", Year: 2021, Quarter: 3, City1: "Atlanta", City2: "Boston",
			Geocoded1: "(33.7, -84.4)", Geocoded2: "(42.4, -71.1)", Fare: &fare, Passengers: 120, LargeMS: &share},
		{CarrierName: "United", Year: 2021, Quarter: 3, City1: "Denver", City2: "Chicago",
			Geocoded1: "oops", Geocoded2: "(41.9, -87.6)", Passengers: 40},
	}

	tables, err := aggregate.Build(records, 5)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, "fares.csv", tables))
	out := buf.String()

	assert.Contains(t, out, "Source:              fares.csv")
	assert.Contains(t, out, "Unroutable records:  1")
	assert.Contains(t, out, "Carriers:            Delta, United")
	assert.Contains(t, out, "TOP 1 ROUTES BY PASSENGER VOLUME")
	assert.Contains(t, out, "Atlanta to Boston")
	assert.Contains(t, out, "210.50")
	assert.Contains(t, out, "n/a")
}
