// Package geocode parses the "(lat,lon)" text the fare dataset uses for city locations.
package geocode

import (
	"math"
	"strconv"
	"strings"

	"github.com/skypies/geo"
)

// Parse parses a parenthesized "lat,lon" pair.
// Malformed, empty, non-finite or out-of-range input yields ok == false; it never fails loudly.
func Parse(text string) (ll geo.Latlong, ok bool) {
	s := strings.Trim(strings.TrimSpace(text), "()")
	if s == "" {
		return geo.Latlong{}, false
	}

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geo.Latlong{}, false
	}

	lat, ok := parseComponent(parts[0], 90)
	if !ok {
		return geo.Latlong{}, false
	}
	lon, ok := parseComponent(parts[1], 180)
	if !ok {
		return geo.Latlong{}, false
	}

	return geo.Latlong{Lat: lat, Long: lon}, true
}

// ParsePair parses both endpoints of a route; it is absent if either endpoint is.
func ParsePair(origin, destination string) (geo.Latlong, geo.Latlong, bool) {
	from, ok := Parse(origin)
	if !ok {
		return geo.Latlong{}, geo.Latlong{}, false
	}
	to, ok := Parse(destination)
	if !ok {
		return geo.Latlong{}, geo.Latlong{}, false
	}
	return from, to, true
}

func parseComponent(s string, limit float64) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
		return 0, false
	}
	return v, true
}
