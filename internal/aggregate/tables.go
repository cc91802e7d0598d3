package aggregate

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"

	"airfare-dashboard/internal/models"
)

// ErrNoRecords is returned by Build when the source produced no rows
var ErrNoRecords = errors.New("aggregate: no fare records")

// Table names as exposed to consumers
const (
	TableYearly              = "yearly"
	TableCarrierFare         = "carrier-fare"
	TableCarrierShare        = "carrier-share"
	TableCarrierQuarterShare = "carrier-quarter-share"
	TableQuarterFare         = "quarter-fare"
	TableTopRoutes           = "top-routes"
)

// TableNames lists every derived table in a stable order
var TableNames = []string{
	TableYearly,
	TableCarrierFare,
	TableCarrierShare,
	TableCarrierQuarterShare,
	TableQuarterFare,
	TableTopRoutes,
}

// Stats describes the record set a Tables value was built from
type Stats struct {
	Records           int      `json:"records"`
	PeriodRecords     int      `json:"period_records"`
	UnroutableRecords int      `json:"unroutable_records"`
	Routes            int      `json:"routes"`
	Carriers          []string `json:"carriers"`
	Years             []int    `json:"years"`
}

// Tables is the immutable set of derived tables.
// Accessors return copies; the value is safe for concurrent readers.
type Tables struct {
	yearly              []models.YearlySummary
	carrierFare         []models.CarrierYearFare
	carrierShare        []models.CarrierYearShare
	carrierQuarterShare []models.CarrierQuarterShare
	quarterFare         []models.QuarterFare
	topRoutes           []models.RouteTotal

	stats       Stats
	fingerprint string
}

// snapshot is the canonical encoding used for fingerprints and table dumps
type snapshot struct {
	Yearly              []models.YearlySummary       `json:"yearly"`
	CarrierFare         []models.CarrierYearFare     `json:"carrier_fare"`
	CarrierShare        []models.CarrierYearShare    `json:"carrier_share"`
	CarrierQuarterShare []models.CarrierQuarterShare `json:"carrier_quarter_share"`
	QuarterFare         []models.QuarterFare         `json:"quarter_fare"`
	TopRoutes           []models.RouteTotal          `json:"top_routes"`
}

// Build runs every aggregation over records. topN <= 0 keeps DefaultTopN routes.
func Build(records []models.FareRecord, topN int) (*Tables, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	routes := RouteTotals(records)
	top := RankRoutes(routes)
	if topN <= 0 {
		topN = DefaultTopN
	}
	if len(top) > topN {
		top = top[:topN]
	}

	t := &Tables{
		yearly:              YearlySummary(records),
		carrierFare:         CarrierYearFare(records),
		carrierShare:        CarrierYearShare(records),
		carrierQuarterShare: CarrierQuarterShare(records),
		quarterFare:         QuarterFare(records),
		topRoutes:           top,
	}

	periodRecords := 0
	for i := range records {
		if records[i].HasPeriod() {
			periodRecords++
		}
	}

	t.stats = Stats{
		Records:           len(records),
		PeriodRecords:     periodRecords,
		UnroutableRecords: UnroutableRows(records),
		Routes:            len(routes),
		Carriers:          Carriers(records),
		Years:             Years(records),
	}

	data, err := t.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode derived tables: %w", err)
	}
	t.fingerprint = fmt.Sprintf("%016x", xxhash.Sum64(data))

	return t, nil
}

// MarshalJSON encodes every table in a fixed layout
func (t *Tables) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		Yearly:              t.yearly,
		CarrierFare:         t.carrierFare,
		CarrierShare:        t.carrierShare,
		CarrierQuarterShare: t.carrierQuarterShare,
		QuarterFare:         t.quarterFare,
		TopRoutes:           t.topRoutes,
	})
}

// Fingerprint identifies the table contents; equal inputs give equal fingerprints
func (t *Tables) Fingerprint() string { return t.fingerprint }

// Stats returns counts about the source records
func (t *Tables) Stats() Stats {
	s := t.stats
	s.Carriers = slices.Clone(t.stats.Carriers)
	s.Years = slices.Clone(t.stats.Years)
	return s
}

func (t *Tables) Yearly() []models.YearlySummary { return slices.Clone(t.yearly) }

func (t *Tables) CarrierFare() []models.CarrierYearFare { return slices.Clone(t.carrierFare) }

func (t *Tables) CarrierShare() []models.CarrierYearShare { return slices.Clone(t.carrierShare) }

func (t *Tables) CarrierQuarterShare() []models.CarrierQuarterShare {
	return slices.Clone(t.carrierQuarterShare)
}

func (t *Tables) QuarterFare() []models.QuarterFare { return slices.Clone(t.quarterFare) }

func (t *Tables) TopRoutes() []models.RouteTotal { return slices.Clone(t.topRoutes) }

// Table returns a derived table by its consumer-facing name
func (t *Tables) Table(name string) (interface{}, bool) {
	switch name {
	case TableYearly:
		return t.Yearly(), true
	case TableCarrierFare:
		return t.CarrierFare(), true
	case TableCarrierShare:
		return t.CarrierShare(), true
	case TableCarrierQuarterShare:
		return t.CarrierQuarterShare(), true
	case TableQuarterFare:
		return t.QuarterFare(), true
	case TableTopRoutes:
		return t.TopRoutes(), true
	default:
		return nil, false
	}
}

// RowCounts returns the number of rows of every table
func (t *Tables) RowCounts() map[string]int {
	return map[string]int{
		TableYearly:              len(t.yearly),
		TableCarrierFare:         len(t.carrierFare),
		TableCarrierShare:        len(t.carrierShare),
		TableCarrierQuarterShare: len(t.carrierQuarterShare),
		TableQuarterFare:         len(t.quarterFare),
		TableTopRoutes:           len(t.topRoutes),
	}
}
