// Package aggregate derives the dashboard tables from the fare record set.
// Every function here is pure: it reads its input and returns new slices.
package aggregate

import (
	"cmp"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"

	"airfare-dashboard/internal/geocode"
	"airfare-dashboard/internal/models"
)

// DefaultTopN is the number of routes kept for the route map
const DefaultTopN = 5

// accumulator collects the values of one group
type accumulator struct {
	fares      []float64
	shares     []float64
	passengers int64
}

func (a *accumulator) add(r *models.FareRecord) {
	if r.Fare != nil && !math.IsNaN(*r.Fare) {
		a.fares = append(a.fares, *r.Fare)
	}
	if r.LargeMS != nil && !math.IsNaN(*r.LargeMS) {
		a.shares = append(a.shares, *r.LargeMS)
	}
	a.passengers += r.Passengers
}

// mean returns nil when no value was present, matching a NaN-skipping mean
func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := stat.Mean(values, nil)
	return &m
}

// groupBy buckets the records with a period by key and returns the keys sorted by less.
func groupBy[K comparable](records []models.FareRecord, key func(*models.FareRecord) K, less func(a, b K) int) ([]K, map[K]*accumulator) {
	groups := make(map[K]*accumulator)
	for i := range records {
		r := &records[i]
		if !r.HasPeriod() {
			continue
		}
		k := key(r)
		acc, ok := groups[k]
		if !ok {
			acc = &accumulator{}
			groups[k] = acc
		}
		acc.add(r)
	}

	keys := make([]K, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, less)
	return keys, groups
}

type yearCarrier struct {
	year    int
	carrier string
}

func compareYearCarrier(a, b yearCarrier) int {
	if c := cmp.Compare(a.year, b.year); c != 0 {
		return c
	}
	return cmp.Compare(a.carrier, b.carrier)
}

type yearQuarter struct {
	year    int
	quarter int
}

func compareYearQuarter(a, b yearQuarter) int {
	if c := cmp.Compare(a.year, b.year); c != 0 {
		return c
	}
	return cmp.Compare(a.quarter, b.quarter)
}

type yearQuarterCarrier struct {
	year    int
	quarter int
	carrier string
}

func compareYearQuarterCarrier(a, b yearQuarterCarrier) int {
	if c := compareYearQuarter(yearQuarter{a.year, a.quarter}, yearQuarter{b.year, b.quarter}); c != 0 {
		return c
	}
	return cmp.Compare(a.carrier, b.carrier)
}

// YearlySummary computes mean fare, summed passengers and mean dominant share per year
func YearlySummary(records []models.FareRecord) []models.YearlySummary {
	keys, groups := groupBy(records, func(r *models.FareRecord) int { return r.Year }, cmp.Compare[int])

	out := make([]models.YearlySummary, 0, len(keys))
	for _, year := range keys {
		acc := groups[year]
		out = append(out, models.YearlySummary{
			Year:            year,
			MeanFare:        mean(acc.fares),
			TotalPassengers: acc.passengers,
			MeanLargeMS:     mean(acc.shares),
		})
	}
	return out
}

// CarrierYearFare computes the mean fare per (year, carrier)
func CarrierYearFare(records []models.FareRecord) []models.CarrierYearFare {
	keys, groups := groupBy(records, func(r *models.FareRecord) yearCarrier {
		return yearCarrier{r.Year, r.CarrierName}
	}, compareYearCarrier)

	out := make([]models.CarrierYearFare, 0, len(keys))
	for _, k := range keys {
		acc := groups[k]
		out = append(out, models.CarrierYearFare{
			Year:       k.year,
			Carrier:    k.carrier,
			MeanFare:   mean(acc.fares),
			Passengers: acc.passengers,
		})
	}
	return out
}

// CarrierYearShare computes the mean dominant-carrier share per (year, carrier)
func CarrierYearShare(records []models.FareRecord) []models.CarrierYearShare {
	keys, groups := groupBy(records, func(r *models.FareRecord) yearCarrier {
		return yearCarrier{r.Year, r.CarrierName}
	}, compareYearCarrier)

	out := make([]models.CarrierYearShare, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.CarrierYearShare{
			Year:        k.year,
			Carrier:     k.carrier,
			MeanLargeMS: mean(groups[k].shares),
		})
	}
	return out
}

// CarrierQuarterShare computes the mean dominant-carrier share per (year, quarter, carrier)
func CarrierQuarterShare(records []models.FareRecord) []models.CarrierQuarterShare {
	keys, groups := groupBy(records, func(r *models.FareRecord) yearQuarterCarrier {
		return yearQuarterCarrier{r.Year, r.Quarter, r.CarrierName}
	}, compareYearQuarterCarrier)

	out := make([]models.CarrierQuarterShare, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.CarrierQuarterShare{
			Year:        k.year,
			Quarter:     k.quarter,
			Carrier:     k.carrier,
			MeanLargeMS: mean(groups[k].shares),
		})
	}
	return out
}

// QuarterFare computes the mean fare per (year, quarter)
func QuarterFare(records []models.FareRecord) []models.QuarterFare {
	keys, groups := groupBy(records, func(r *models.FareRecord) yearQuarter {
		return yearQuarter{r.Year, r.Quarter}
	}, compareYearQuarter)

	out := make([]models.QuarterFare, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.QuarterFare{
			Year:     k.year,
			Quarter:  k.quarter,
			MeanFare: mean(groups[k].fares),
		})
	}
	return out
}

type cityPair struct {
	from string
	to   string
}

// RouteTotals sums passengers per (city1, city2) over rows whose endpoints both parse.
// Routes are returned in order of first appearance; coordinates come from the first valid row.
func RouteTotals(records []models.FareRecord) []models.RouteTotal {
	index := make(map[cityPair]int)
	out := make([]models.RouteTotal, 0)

	for i := range records {
		r := &records[i]
		from, to, ok := geocode.ParsePair(r.Geocoded1, r.Geocoded2)
		if !ok {
			continue
		}

		key := cityPair{r.City1, r.City2}
		if pos, seen := index[key]; seen {
			out[pos].Passengers += r.Passengers
			continue
		}

		distance := from.DistKM(to)
		if math.IsNaN(distance) {
			distance = 0
		}

		index[key] = len(out)
		out = append(out, models.RouteTotal{
			City1:       r.City1,
			City2:       r.City2,
			Origin:      from,
			Destination: to,
			Passengers:  r.Passengers,
			DistanceKM:  distance,
		})
	}
	return out
}

// UnroutableRows counts the rows dropped from route totals for bad coordinates
func UnroutableRows(records []models.FareRecord) int {
	n := 0
	for i := range records {
		if _, _, ok := geocode.ParsePair(records[i].Geocoded1, records[i].Geocoded2); !ok {
			n++
		}
	}
	return n
}

// RankRoutes orders routes by passengers descending. Ties keep their input order.
func RankRoutes(routes []models.RouteTotal) []models.RouteTotal {
	ranked := slices.Clone(routes)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Passengers > ranked[j].Passengers
	})
	return ranked
}

// TopRoutes returns at most n routes with the highest passenger totals
func TopRoutes(records []models.FareRecord, n int) []models.RouteTotal {
	if n <= 0 {
		n = DefaultTopN
	}
	ranked := RankRoutes(RouteTotals(records))
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// FilterCarriers keeps the records whose carrier name is in names.
// An empty name list means no filtering and returns records as is.
func FilterCarriers(records []models.FareRecord, names []string) []models.FareRecord {
	if len(names) == 0 {
		return records
	}

	include := make(map[string]struct{}, len(names))
	for _, name := range names {
		include[name] = struct{}{}
	}

	out := make([]models.FareRecord, 0, len(records))
	for _, r := range records {
		if _, ok := include[r.CarrierName]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Carriers returns the distinct carrier names, sorted
func Carriers(records []models.FareRecord) []string {
	seen := make(map[string]struct{})
	for i := range records {
		seen[records[i].CarrierName] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Years returns the distinct years that feed time-series tables, sorted
func Years(records []models.FareRecord) []int {
	seen := make(map[int]struct{})
	for i := range records {
		if records[i].HasPeriod() {
			seen[records[i].Year] = struct{}{}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	slices.Sort(years)
	return years
}
