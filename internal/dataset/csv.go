// Package dataset loads the fare record set from its provider.
// A load either returns every record or fails; there is no partial mode.
package dataset

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"airfare-dashboard/internal/models"
)

// Source column names
const (
	ColYear       = "Year"
	ColQuarter    = "quarter"
	ColCarrier    = "carrier"
	ColCarrierFul = "carrier_full"
	ColFare       = "fare"
	ColPassengers = "passengers"
	ColLargeMS    = "large_ms"
	ColCity1      = "city1"
	ColCity2      = "city2"
	ColGeocoded1  = "Geocoded_City1"
	ColGeocoded2  = "Geocoded_City2"
)

// RequiredColumns must all be present in the source feed
var RequiredColumns = []string{
	ColYear, ColQuarter, ColCarrierFul, ColFare, ColPassengers,
	ColLargeMS, ColCity1, ColCity2, ColGeocoded1, ColGeocoded2,
}

// naTokens are cells read as missing values
var naTokens = []string{"NA", "NaN", "<nil>", ""}

// maxIntegral bounds whole-number cells to the range float64 holds exactly
const maxIntegral = 1 << 53

// Source produces the full fare record set
type Source interface {
	Load(ctx context.Context) ([]models.FareRecord, error)
	Describe() string
}

// SchemaError reports a source feed that lacks expected columns
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// CSVSource reads the dataset from an HTTP(S) URL or a local file
type CSVSource struct {
	location string
	client   *http.Client
}

// NewCSVSource creates a CSV source. timeout bounds the HTTP fetch.
func NewCSVSource(location string, timeout time.Duration) *CSVSource {
	return &CSVSource{
		location: location,
		client:   &http.Client{Timeout: timeout},
	}
}

// Describe returns the source location
func (s *CSVSource) Describe() string {
	return s.location
}

// Load fetches and decodes the CSV. There is no retry.
func (s *CSVSource) Load(ctx context.Context) ([]models.FareRecord, error) {
	if isRemote(s.location) {
		return s.loadRemote(ctx)
	}

	file, err := os.Open(s.location)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

func (s *CSVSource) loadRemote(ctx context.Context) ([]models.FareRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch dataset: unexpected status %s", resp.Status)
	}

	return Decode(resp.Body)
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Decode parses a CSV feed into fare records
func Decode(r io.Reader) ([]models.FareRecord, error) {
	df := dataframe.ReadCSV(r,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(naTokens),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", df.Err)
	}

	if err := checkColumns(df.Names()); err != nil {
		return nil, err
	}

	return fromFrame(df)
}

func checkColumns(names []string) error {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// fromFrame converts the typed frame into records, validating every row
func fromFrame(df dataframe.DataFrame) ([]models.FareRecord, error) {
	var (
		year       = df.Col(ColYear)
		quarter    = df.Col(ColQuarter)
		carrierFul = df.Col(ColCarrierFul)
		fare       = df.Col(ColFare)
		passengers = df.Col(ColPassengers)
		largeMS    = df.Col(ColLargeMS)
		city1      = df.Col(ColCity1)
		city2      = df.Col(ColCity2)
		geocoded1  = df.Col(ColGeocoded1)
		geocoded2  = df.Col(ColGeocoded2)
	)

	var carrier series.Series
	withCarrier := hasColumn(df, ColCarrier)
	if withCarrier {
		carrier = df.Col(ColCarrier)
	}

	records := make([]models.FareRecord, df.Nrow())
	for i := range records {
		rec := &records[i]

		y, err := integral(year, i, "year")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		q, err := integral(quarter, i, "quarter")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		rec.Year = int(y)
		rec.Quarter = int(q)
		rec.CarrierName = text(carrierFul, i)
		rec.City1 = text(city1, i)
		rec.City2 = text(city2, i)
		rec.Geocoded1 = text(geocoded1, i)
		rec.Geocoded2 = text(geocoded2, i)
		if withCarrier {
			rec.Carrier = text(carrier, i)
		}
		if rec.Fare, err = number(fare, i, "fare"); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if rec.LargeMS, err = number(largeMS, i, "large_ms"); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		p, err := integral(passengers, i, "passengers")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rec.Passengers = p

		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	return records, nil
}

func text(s series.Series, i int) string {
	e := s.Elem(i)
	if e.IsNA() {
		return ""
	}
	return strings.TrimSpace(e.String())
}

// number parses a numeric cell; missing cells are nil
func number(s series.Series, i int, field string) (*float64, error) {
	e := s.Elem(i)
	if e.IsNA() {
		return nil, nil
	}

	raw := strings.TrimSpace(e.String())
	if slices.Contains(naTokens, raw) {
		return nil, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &models.ValidationError{
			Field:   field,
			Value:   raw,
			Message: "expected a finite number",
		}
	}
	return &v, nil
}

// integral reads a whole-number cell; missing cells read as 0
func integral(s series.Series, i int, field string) (int64, error) {
	v, err := number(s, i, field)
	if err != nil || v == nil {
		return 0, err
	}
	if *v != math.Trunc(*v) || math.Abs(*v) > maxIntegral {
		return 0, &models.ValidationError{
			Field:   field,
			Value:   strconv.FormatFloat(*v, 'g', -1, 64),
			Message: "expected a whole number",
		}
	}
	return int64(*v), nil
}
