package charts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airfare-dashboard/internal/aggregate"
	"airfare-dashboard/internal/models"
)

func f(v float64) *float64 { return &v }

func fareRecords() []models.FareRecord {
	return []models.FareRecord{
		{CarrierName: "Delta", Year: 2019, Quarter: 1, City1: "Atlanta", City2: "Boston",
			Geocoded1: "(33.7, -84.4)", Geocoded2: "(42.4, -71.1)", Fare: f(200), Passengers: 100, LargeMS: f(60)},
		{CarrierName: "Delta", Year: 2019, Quarter: 2, City1: "Atlanta", City2: "Boston",
			Geocoded1: "(33.7, -84.4)", Geocoded2: "(42.4, -71.1)", Fare: f(220), Passengers: 50, LargeMS: f(70)},
		{CarrierName: "United", Year: 2020, Quarter: 1, City1: "Denver", City2: "Chicago",
			Geocoded1: "(39.7, -105.0)", Geocoded2: "(41.9, -87.6)", Fare: f(150), Passengers: 300, LargeMS: f(40)},
	}
}

func TestParseTab(t *testing.T) {
	for _, tab := range Tabs {
		got, err := ParseTab(string(tab))
		require.NoError(t, err)
		assert.Equal(t, tab, got)
	}

	_, err := ParseTab("tab7")
	assert.ErrorIs(t, err, ErrUnknownTab)
}

func TestYearlyFareTrend(t *testing.T) {
	chart := YearlyFareTrend([]models.YearlySummary{
		{Year: 2019, MeanFare: f(210)},
		{Year: 2020, MeanFare: nil},
	})

	assert.Equal(t, KindLine, chart.Kind)
	assert.Equal(t, "Average Fare Over Time (Yearly)", chart.Title)
	assert.Equal(t, "Average Fare ($)", chart.YAxis.Title)
	require.Len(t, chart.Series, 1)
	assert.Equal(t, []int{2019, 2020}, chart.Series[0].X)
	assert.Nil(t, chart.Series[0].Y[1])
}

func TestFareByCarrier_SeriesPerCarrier(t *testing.T) {
	chart := FareByCarrier([]models.CarrierYearFare{
		{Year: 2019, Carrier: "United", MeanFare: f(150)},
		{Year: 2019, Carrier: "Delta", MeanFare: f(200)},
		{Year: 2020, Carrier: "Delta", MeanFare: f(210)},
	})

	require.Len(t, chart.Series, 2)
	assert.Equal(t, "Delta", chart.Series[0].Name)
	assert.Equal(t, []int{2019, 2020}, chart.Series[0].X)
	assert.Equal(t, "United", chart.Series[1].Name)
	assert.Equal(t, "Airline", chart.LegendTitle)
}

func TestQuarterlyFareTrend_SeriesPerYear(t *testing.T) {
	chart := QuarterlyFareTrend([]models.QuarterFare{
		{Year: 2019, Quarter: 1, MeanFare: f(1)},
		{Year: 2019, Quarter: 2, MeanFare: f(2)},
		{Year: 2020, Quarter: 1, MeanFare: f(3)},
	})

	require.Len(t, chart.Series, 2)
	assert.Equal(t, "2019", chart.Series[0].Name)
	assert.Equal(t, []int{1, 2}, chart.Series[0].X)
	assert.Equal(t, "Quarter", chart.XAxis.Title)
}

func TestYearlyMarketShare_Stacked(t *testing.T) {
	chart := YearlyMarketShare([]models.CarrierYearShare{
		{Year: 2019, Carrier: "Delta", MeanLargeMS: f(60)},
	})

	assert.Equal(t, KindBar, chart.Kind)
	assert.Equal(t, BarModeStack, chart.BarMode)
	assert.Equal(t, "Market Share (%)", chart.YAxis.Title)
}

func TestQuarterlyMarketShare(t *testing.T) {
	rows := []models.CarrierQuarterShare{
		{Year: 2019, Quarter: 1, Carrier: "Delta", MeanLargeMS: f(60)},
		{Year: 2019, Quarter: 2, Carrier: "Delta", MeanLargeMS: f(70)},
		{Year: 2020, Quarter: 1, Carrier: "United", MeanLargeMS: f(40)},
	}

	t.Run("defaults to first year", func(t *testing.T) {
		chart, err := QuarterlyMarketShare(rows, 0)
		require.NoError(t, err)
		assert.Equal(t, "Quarterly Market Share by Airline for 2019", chart.Title)
		require.NotNil(t, chart.Slider)
		assert.Equal(t, []int{2019, 2020}, chart.Slider.Steps)
		assert.Equal(t, 0, chart.Slider.Active)
		require.Len(t, chart.Series, 1)
		assert.Equal(t, []int{1, 2}, chart.Series[0].X)
	})

	t.Run("selected year", func(t *testing.T) {
		chart, err := QuarterlyMarketShare(rows, 2020)
		require.NoError(t, err)
		assert.Equal(t, 1, chart.Slider.Active)
		require.Len(t, chart.Series, 1)
		assert.Equal(t, "United", chart.Series[0].Name)
	})

	t.Run("unknown year", func(t *testing.T) {
		_, err := QuarterlyMarketShare(rows, 1999)
		assert.ErrorIs(t, err, ErrUnknownYear)
	})

	t.Run("no rows", func(t *testing.T) {
		chart, err := QuarterlyMarketShare(nil, 0)
		require.NoError(t, err)
		assert.Nil(t, chart.Slider)
		assert.Empty(t, chart.Series)
	})
}

func TestRouteMap(t *testing.T) {
	routes := aggregate.TopRoutes(fareRecords(), 5)
	chart := RouteMap(routes)

	assert.Equal(t, KindGeo, chart.Kind)
	assert.Equal(t, "Top 2 Routes by Passenger Volume", chart.Title)
	require.Len(t, chart.Series, 2)
	assert.Equal(t, "Denver to Chicago", chart.Series[0].Name)
	assert.Equal(t, []Point{{Lat: 39.7, Lon: -105.0}, {Lat: 41.9, Lon: -87.6}}, chart.Series[0].Points)
}

func TestRender(t *testing.T) {
	tables, err := aggregate.Build(fareRecords(), 5)
	require.NoError(t, err)

	for _, tab := range Tabs {
		chart, err := Render(tab, tables, Options{})
		require.NoError(t, err, "tab %s", tab)
		assert.Equal(t, tab, chart.Tab)
		assert.NotEmpty(t, chart.Title)
	}
}

func TestRender_Smoothing(t *testing.T) {
	tables, err := aggregate.Build(fareRecords(), 5)
	require.NoError(t, err)

	chart, err := Render(TabYearlyFare, tables, Options{Smooth: 2})
	require.NoError(t, err)
	smoothed := chart.Series[0].Smoothed
	require.Len(t, smoothed, 2)
	assert.Nil(t, smoothed[0])
	require.NotNil(t, smoothed[1])
	assert.InDelta(t, 180.0, *smoothed[1], 1e-9)

	bars, err := Render(TabYearlyMarketShare, tables, Options{Smooth: 2})
	require.NoError(t, err)
	for _, s := range bars.Series {
		assert.Nil(t, s.Smoothed)
	}

	_, err = Render(TabYearlyFare, tables, Options{Smooth: 4})
	assert.ErrorIs(t, err, ErrBadWindow)
}

func TestRender_UnknownTab(t *testing.T) {
	tables, err := aggregate.Build(fareRecords(), 5)
	require.NoError(t, err)

	_, err = Render("tab9", tables, Options{})
	assert.ErrorIs(t, err, ErrUnknownTab)
}
