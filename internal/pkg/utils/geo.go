package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Web mercator tiling cuts off at ~85 degrees latitude.
const maxTileLatitude = 85.0511

// ParseBounds parses a "west,south,east,north" bounding box in degrees.
func ParseBounds(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bounds must have 4 comma-separated values, got %d", len(parts))
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bounds value %q is not a number", strings.TrimSpace(p))
		}
		vals[i] = v
	}

	west, south, east, north := vals[0], vals[1], vals[2], vals[3]
	if !ValidateCoordinates(south, west) || !ValidateCoordinates(north, east) {
		return orb.Bound{}, fmt.Errorf("bounds %q fall outside the lat/lon range", s)
	}
	if west >= east || south >= north {
		return orb.Bound{}, fmt.Errorf("bounds %q must be ordered west,south,east,north", s)
	}

	return orb.Bound{Min: orb.Point{west, south}, Max: orb.Point{east, north}}, nil
}

// WorldBounds returns the full tileable extent.
func WorldBounds() orb.Bound {
	return orb.Bound{
		Min: orb.Point{-180, -maxTileLatitude},
		Max: orb.Point{180, maxTileLatitude},
	}
}

// ValidateCoordinates reports whether a lat/lon pair is in range.
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
