package models

import (
	"fmt"

	"github.com/skypies/geo"
)

// FareRecord represents one row of the source fare dataset
// Optional numeric values are pointers so missing cells stay distinguishable from zero
type FareRecord struct {
	Carrier     string   `json:"carrier,omitempty" db:"carrier"`
	CarrierName string   `json:"carrier_full" db:"carrier_full"`
	Year        int      `json:"year" db:"year"`
	Quarter     int      `json:"quarter" db:"quarter"`
	City1       string   `json:"city1" db:"city1"`
	City2       string   `json:"city2" db:"city2"`
	Geocoded1   string   `json:"geocoded_city1" db:"geocoded_city1"`
	Geocoded2   string   `json:"geocoded_city2" db:"geocoded_city2"`
	Fare        *float64 `json:"fare,omitempty" db:"fare"`
	Passengers  int64    `json:"passengers" db:"passengers"`
	LargeMS     *float64 `json:"large_ms,omitempty" db:"large_ms"`
}

// HasPeriod reports whether the record can feed time-series aggregates
func (r *FareRecord) HasPeriod() bool {
	return r.Year > 0 && r.Quarter >= 1 && r.Quarter <= 4
}

// Validate checks value ranges that make a record unusable
func (r *FareRecord) Validate() error {
	if r.Quarter != 0 && (r.Quarter < 1 || r.Quarter > 4) {
		return &ValidationError{
			Field:   "quarter",
			Value:   fmt.Sprintf("%d", r.Quarter),
			Message: "quarter must be between 1 and 4",
		}
	}
	if r.Passengers < 0 {
		return &ValidationError{
			Field:   "passengers",
			Value:   fmt.Sprintf("%d", r.Passengers),
			Message: "passengers must not be negative",
		}
	}
	return nil
}

// YearlySummary is one row per year
type YearlySummary struct {
	Year            int      `json:"year"`
	MeanFare        *float64 `json:"fare"`
	TotalPassengers int64    `json:"passengers"`
	MeanLargeMS     *float64 `json:"large_ms"`
}

// CarrierYearFare is the mean fare per (year, carrier)
type CarrierYearFare struct {
	Year     int      `json:"year"`
	Carrier  string   `json:"carrier_full"`
	MeanFare *float64 `json:"fare"`
	// Passengers is carried so per-carrier totals can be reconciled with YearlySummary
	Passengers int64 `json:"passengers"`
}

// CarrierYearShare is the mean dominant-carrier share per (year, carrier)
type CarrierYearShare struct {
	Year        int      `json:"year"`
	Carrier     string   `json:"carrier_full"`
	MeanLargeMS *float64 `json:"large_ms"`
}

// CarrierQuarterShare is the mean dominant-carrier share per (year, quarter, carrier)
type CarrierQuarterShare struct {
	Year        int      `json:"year"`
	Quarter     int      `json:"quarter"`
	Carrier     string   `json:"carrier_full"`
	MeanLargeMS *float64 `json:"large_ms"`
}

// QuarterFare is the mean fare per (year, quarter)
type QuarterFare struct {
	Year     int      `json:"year"`
	Quarter  int      `json:"quarter"`
	MeanFare *float64 `json:"fare"`
}

// RouteTotal is the passenger total for a city pair with parsed endpoints
type RouteTotal struct {
	City1       string      `json:"city1"`
	City2       string      `json:"city2"`
	Origin      geo.Latlong `json:"origin"`
	Destination geo.Latlong `json:"destination"`
	Passengers  int64       `json:"passengers"`
	DistanceKM  float64     `json:"distance_km"`
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Message, e.Value)
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
