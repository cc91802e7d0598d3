package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"airfare-dashboard/internal/aggregate"
)

const rule = "════════════════════════════════════════════════════════════════"

func section(w io.Writer, title string) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, rule)
}

func value(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

// writeReport prints the derived tables as aligned text
func writeReport(out io.Writer, source string, t *aggregate.Tables) error {
	stats := t.Stats()

	section(out, "AIRFARE DATASET REPORT")
	fmt.Fprintf(out, "Source:              %s\n", source)
	fmt.Fprintf(out, "Fingerprint:         %s\n", t.Fingerprint())
	fmt.Fprintf(out, "Records:             %d\n", stats.Records)
	fmt.Fprintf(out, "Records with period: %d\n", stats.PeriodRecords)
	fmt.Fprintf(out, "Unroutable records:  %d\n", stats.UnroutableRecords)
	fmt.Fprintf(out, "Distinct routes:     %d\n", stats.Routes)
	fmt.Fprintf(out, "Carriers:            %s\n", strings.Join(stats.Carriers, ", "))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	section(w, "AVERAGE FARE BY YEAR")
	fmt.Fprintln(w, "Year\tFare ($)\tPassengers\tMarket Share (%)")
	for _, r := range t.Yearly() {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", r.Year, value(r.MeanFare), r.TotalPassengers, value(r.MeanLargeMS))
	}
	fmt.Fprintln(w)

	section(w, "AVERAGE FARE BY QUARTER")
	fmt.Fprintln(w, "Year\tQuarter\tFare ($)")
	for _, r := range t.QuarterFare() {
		fmt.Fprintf(w, "%d\tQ%d\t%s\n", r.Year, r.Quarter, value(r.MeanFare))
	}
	fmt.Fprintln(w)

	section(w, "MARKET SHARE BY AIRLINE")
	fmt.Fprintln(w, "Year\tAirline\tMarket Share (%)")
	for _, r := range t.CarrierShare() {
		fmt.Fprintf(w, "%d\t%s\t%s\n", r.Year, r.Carrier, value(r.MeanLargeMS))
	}
	fmt.Fprintln(w)

	routes := t.TopRoutes()
	section(w, fmt.Sprintf("TOP %d ROUTES BY PASSENGER VOLUME", len(routes)))
	fmt.Fprintln(w, "#\tRoute\tPassengers\tDistance (km)")
	for i, r := range routes {
		fmt.Fprintf(w, "%d\t%s to %s\t%d\t%.0f\n", i+1, r.City1, r.City2, r.Passengers, r.DistanceKM)
	}

	return w.Flush()
}
