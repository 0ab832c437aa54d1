package geo

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mauriciobarrev/otravezlunes/pkg/model"
)

// landmarkKeys are address parts that name a specific spot, most specific first.
var landmarkKeys = []string{"tourism", "historic", "natural", "amenity", "shop", "leisure", "aerodrome", "building"}

var cityKeys = []string{"city", "town", "village", "county"}

// FallbackName names a place that could not be geocoded.
func FallbackName(p model.Point) string {
	return fmt.Sprintf("Location at %.6f, %.6f", p.Latitude, p.Longitude)
}

func usable(a *Address) bool {
	return a != nil && (strings.TrimSpace(a.DisplayName) != "" || len(a.Components) > 0)
}

// PlaceFromAddress builds an unsaved place at p, named from a. A nil or empty
// address yields the fallback name.
func PlaceFromAddress(p model.Point, a *Address) *model.Place {
	pl := &model.Place{Latitude: p.Latitude, Longitude: p.Longitude}
	if !usable(a) {
		pl.Name = FallbackName(p)
		return pl
	}

	c := func(k string) string { return strings.TrimSpace(a.Components[k]) }

	name := ""
	for _, k := range landmarkKeys {
		if name = c(k); name != "" {
			break
		}
	}
	if name == "" {
		name = c("suburb")
	}
	if name == "" {
		name = c("road")
	}
	if name == "" {
		first, _, _ := strings.Cut(a.DisplayName, ",")
		name = strings.TrimSpace(first)
	}

	// a bare house number says nothing
	if numeric(name) && c("road") != "" {
		name = c("road")
	}
	if name == "" {
		name = FallbackName(p)
	}

	for _, k := range cityKeys {
		if pl.City = c(k); pl.City != "" {
			break
		}
	}

	pl.Name = name
	pl.Country = c("country")
	pl.Address = strings.TrimSpace(a.DisplayName)
	return pl
}

// numeric reports whether s is digits with at most one decimal point.
func numeric(s string) bool {
	if s == "" {
		return false
	}
	dot := false
	digits := 0
	for _, r := range s {
		switch {
		case r == '.' && !dot:
			dot = true
		case unicode.IsDigit(r):
			digits++
		default:
			return false
		}
	}
	return digits > 0
}
