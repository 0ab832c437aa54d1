package photo

import (
	"fmt"
	"math"
	"strings"

	"github.com/mauriciobarrev/otravezlunes/pkg/model"
)

// ToDecimal converts a degrees/minutes/seconds triplet into decimal degrees,
// negative for S and W references, rounded to 6 decimal places.
func ToDecimal(dms []float64, ref string) (float64, error) {
	if len(dms) != 3 {
		return 0, fmt.Errorf("want 3 components, got %d", len(dms))
	}
	for _, v := range dms {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return 0, fmt.Errorf("bad component %v", v)
		}
	}

	d := dms[0] + dms[1]/60 + dms[2]/3600
	switch normalizeRef(ref) {
	case "N", "E":
	case "S", "W":
		d = -d
	default:
		return 0, fmt.Errorf("unknown reference %q", ref)
	}
	return math.Round(d*1e6) / 1e6, nil
}

// normalizeRef maps "North", "s", "W " and friends to a single upper-case letter.
func normalizeRef(ref string) string {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if ref == "" {
		return ""
	}
	return ref[:1]
}

// Coordinates returns the GPS position in t, or nil if either axis is missing or malformed.
func Coordinates(t *Tags) *model.Point {
	if t == nil {
		return nil
	}

	if r := normalizeRef(t.LatitudeRef); r != "N" && r != "S" {
		return nil
	}
	if r := normalizeRef(t.LongitudeRef); r != "E" && r != "W" {
		return nil
	}

	lat, err := ToDecimal(t.Latitude, t.LatitudeRef)
	if err != nil || math.Abs(lat) > 90 {
		return nil
	}
	lon, err := ToDecimal(t.Longitude, t.LongitudeRef)
	if err != nil || math.Abs(lon) > 180 {
		return nil
	}

	return &model.Point{Latitude: lat, Longitude: lon}
}
