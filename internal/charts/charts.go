// Package charts turns derived tables into rendering descriptions for the dashboard tabs.
// Nothing here draws; a front end picks these up and renders them.
package charts

import (
	"errors"
	"fmt"
	"slices"

	"airfare-dashboard/internal/aggregate"
	"airfare-dashboard/internal/models"
)

// Tab identifies a dashboard view
type Tab string

const (
	TabYearlyFare           Tab = "tab1"
	TabFareByCarrier        Tab = "tab2"
	TabQuarterlyFare        Tab = "tab3"
	TabYearlyMarketShare    Tab = "tab4"
	TabQuarterlyMarketShare Tab = "tab5"
	TabRouteMap             Tab = "tab6"
)

// Tabs lists the dashboard tabs in display order
var Tabs = []Tab{
	TabYearlyFare,
	TabFareByCarrier,
	TabQuarterlyFare,
	TabYearlyMarketShare,
	TabQuarterlyMarketShare,
	TabRouteMap,
}

// Labels are the tab captions
var Labels = map[Tab]string{
	TabYearlyFare:           "Yearly Fare Trend",
	TabFareByCarrier:        "Average Fare by Airline",
	TabQuarterlyFare:        "Quarterly Fare Trends",
	TabYearlyMarketShare:    "Yearly Market Share",
	TabQuarterlyMarketShare: "Quarterly Market Share by Airline",
	TabRouteMap:             "Geographic Route Map",
}

type Kind string

const (
	KindLine Kind = "line"
	KindBar  Kind = "bar"
	KindGeo  Kind = "geo"
)

type BarMode string

const (
	BarModeNone  BarMode = ""
	BarModeStack BarMode = "stack"
)

var (
	ErrUnknownTab  = errors.New("charts: unknown tab")
	ErrUnknownYear = errors.New("charts: year not in dataset")
	ErrBadWindow   = errors.New("charts: smoothing window must be 2 or 3")
)

// Axis describes one chart axis
type Axis struct {
	Title string `json:"title"`
}

// Point is a map location
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Series is one trace of a chart
type Series struct {
	Name     string     `json:"name"`
	X        []int      `json:"x,omitempty"`
	Y        []*float64 `json:"y,omitempty"`
	Smoothed []*float64 `json:"smoothed,omitempty"`
	Points   []Point    `json:"points,omitempty"`
}

// Slider selects one value of a stepped dimension
type Slider struct {
	Prefix string `json:"prefix"`
	Steps  []int  `json:"steps"`
	Active int    `json:"active"`
}

// Chart is the rendering description of a tab
type Chart struct {
	Tab         Tab      `json:"tab"`
	Kind        Kind     `json:"kind"`
	Title       string   `json:"title"`
	XAxis       Axis     `json:"x_axis"`
	YAxis       Axis     `json:"y_axis"`
	LegendTitle string   `json:"legend_title,omitempty"`
	BarMode     BarMode  `json:"bar_mode,omitempty"`
	HoverMode   string   `json:"hover_mode,omitempty"`
	GeoScope    string   `json:"geo_scope,omitempty"`
	Slider      *Slider  `json:"slider,omitempty"`
	Series      []Series `json:"series"`
}

// Options tune a chart build
type Options struct {
	// Year selects the slider step of the quarterly share tab; 0 picks the first year
	Year int
	// Smooth adds a rolling-mean overlay to line charts; 0 disables it
	Smooth int
}

// ParseTab validates a tab identifier
func ParseTab(s string) (Tab, error) {
	tab := Tab(s)
	if _, ok := Labels[tab]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
	}
	return tab, nil
}

// Render builds the chart of a tab from the derived tables
func Render(tab Tab, t *aggregate.Tables, opts Options) (*Chart, error) {
	if opts.Smooth != 0 && !ValidWindow(opts.Smooth) {
		return nil, ErrBadWindow
	}

	var (
		chart *Chart
		err   error
	)
	switch tab {
	case TabYearlyFare:
		chart = YearlyFareTrend(t.Yearly())
	case TabFareByCarrier:
		chart = FareByCarrier(t.CarrierFare())
	case TabQuarterlyFare:
		chart = QuarterlyFareTrend(t.QuarterFare())
	case TabYearlyMarketShare:
		chart = YearlyMarketShare(t.CarrierShare())
	case TabQuarterlyMarketShare:
		chart, err = QuarterlyMarketShare(t.CarrierQuarterShare(), opts.Year)
	case TabRouteMap:
		chart = RouteMap(t.TopRoutes())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	if err != nil {
		return nil, err
	}

	if opts.Smooth != 0 && chart.Kind == KindLine {
		for i := range chart.Series {
			chart.Series[i].Smoothed = RollingMean(chart.Series[i].Y, opts.Smooth)
		}
	}
	return chart, nil
}

// YearlyFareTrend plots the mean fare per year
func YearlyFareTrend(rows []models.YearlySummary) *Chart {
	s := Series{Name: "Average Fare"}
	for _, r := range rows {
		s.X = append(s.X, r.Year)
		s.Y = append(s.Y, r.MeanFare)
	}

	return &Chart{
		Tab:       TabYearlyFare,
		Kind:      KindLine,
		Title:     "Average Fare Over Time (Yearly)",
		XAxis:     Axis{Title: "Year"},
		YAxis:     Axis{Title: "Average Fare ($)"},
		HoverMode: "x unified",
		Series:    []Series{s},
	}
}

// FareByCarrier plots one mean-fare line per carrier
func FareByCarrier(rows []models.CarrierYearFare) *Chart {
	bySeries := newSeriesSet()
	for _, r := range rows {
		bySeries.add(r.Carrier, r.Year, r.MeanFare)
	}

	return &Chart{
		Tab:         TabFareByCarrier,
		Kind:        KindLine,
		Title:       "Average Fare Over Time by Airline",
		XAxis:       Axis{Title: "Year"},
		YAxis:       Axis{Title: "Average Fare ($)"},
		LegendTitle: "Airline",
		Series:      bySeries.sorted(),
	}
}

// QuarterlyFareTrend plots one mean-fare line per year over quarters
func QuarterlyFareTrend(rows []models.QuarterFare) *Chart {
	bySeries := newSeriesSet()
	for _, r := range rows {
		bySeries.add(fmt.Sprintf("%d", r.Year), r.Quarter, r.MeanFare)
	}

	return &Chart{
		Tab:         TabQuarterlyFare,
		Kind:        KindLine,
		Title:       "Quarterly Fare Trends (with Interpolation)",
		XAxis:       Axis{Title: "Quarter"},
		YAxis:       Axis{Title: "Average Fare ($)"},
		LegendTitle: "Year",
		HoverMode:   "x unified",
		Series:      bySeries.sorted(),
	}
}

// YearlyMarketShare stacks the mean dominant share of each carrier per year
func YearlyMarketShare(rows []models.CarrierYearShare) *Chart {
	bySeries := newSeriesSet()
	for _, r := range rows {
		bySeries.add(r.Carrier, r.Year, r.MeanLargeMS)
	}

	return &Chart{
		Tab:         TabYearlyMarketShare,
		Kind:        KindBar,
		Title:       "Market Share by Airline (Yearly)",
		XAxis:       Axis{Title: "Year"},
		YAxis:       Axis{Title: "Market Share (%)"},
		LegendTitle: "Airline",
		BarMode:     BarModeStack,
		Series:      bySeries.sorted(),
	}
}

// QuarterlyMarketShare stacks carrier shares per quarter for one year, with a year slider
func QuarterlyMarketShare(rows []models.CarrierQuarterShare, year int) (*Chart, error) {
	var years []int
	for _, r := range rows {
		if !slices.Contains(years, r.Year) {
			years = append(years, r.Year)
		}
	}
	slices.Sort(years)

	chart := &Chart{
		Tab:         TabQuarterlyMarketShare,
		Kind:        KindBar,
		Title:       "Quarterly Market Share by Airline",
		XAxis:       Axis{Title: "Quarter"},
		YAxis:       Axis{Title: "Market Share (%)"},
		LegendTitle: "Airline",
		BarMode:     BarModeStack,
		Series:      []Series{},
	}
	if len(years) == 0 {
		return chart, nil
	}

	if year == 0 {
		year = years[0]
	}
	active := slices.Index(years, year)
	if active < 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownYear, year)
	}

	bySeries := newSeriesSet()
	for _, r := range rows {
		if r.Year == year {
			bySeries.add(r.Carrier, r.Quarter, r.MeanLargeMS)
		}
	}

	chart.Title = fmt.Sprintf("Quarterly Market Share by Airline for %d", year)
	chart.Slider = &Slider{Prefix: "Year: ", Steps: years, Active: active}
	chart.Series = bySeries.sorted()
	return chart, nil
}

// RouteMap draws one line per top route
func RouteMap(routes []models.RouteTotal) *Chart {
	series := make([]Series, 0, len(routes))
	for _, r := range routes {
		series = append(series, Series{
			Name: fmt.Sprintf("%s to %s", r.City1, r.City2),
			Points: []Point{
				{Lat: r.Origin.Lat, Lon: r.Origin.Long},
				{Lat: r.Destination.Lat, Lon: r.Destination.Long},
			},
		})
	}

	return &Chart{
		Tab:      TabRouteMap,
		Kind:     KindGeo,
		Title:    fmt.Sprintf("Top %d Routes by Passenger Volume", len(routes)),
		GeoScope: "usa",
		Series:   series,
	}
}

// seriesSet groups points by series name, keeping x order of arrival
type seriesSet struct {
	byName map[string]*Series
}

func newSeriesSet() *seriesSet {
	return &seriesSet{byName: make(map[string]*Series)}
}

func (s *seriesSet) add(name string, x int, y *float64) {
	series, ok := s.byName[name]
	if !ok {
		series = &Series{Name: name}
		s.byName[name] = series
	}
	series.X = append(series.X, x)
	series.Y = append(series.Y, y)
}

func (s *seriesSet) sorted() []Series {
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]Series, 0, len(names))
	for _, name := range names {
		out = append(out, *s.byName[name])
	}
	return out
}
