package parcel

import "github.com/BearBump/ParcelBox/internal/models"

// Подстановки, когда локация неизвестна или метки совпали.
const (
	DefaultOriginLabel      = "Origin"
	DefaultDestinationLabel = "Destination"
)

// ShortLabel picks a short display string for a location. A bare address line
// with no geographic fields is assumed self-sufficient and returned verbatim.
// Otherwise fields are scanned micro-to-macro (city, state, country) when
// ascending, macro-to-micro when not. Returns "" when nothing usable exists.
func ShortLabel(loc *models.Location, ascending bool) string {
	if loc == nil {
		return ""
	}
	if loc.AddressLine != "" && loc.City == "" && loc.State == "" && loc.Country == "" {
		return loc.AddressLine
	}

	order := []string{loc.City, loc.State, loc.Country}
	if !ascending {
		order = []string{loc.Country, loc.State, loc.City}
	}
	for _, s := range order {
		if s != "" {
			return s
		}
	}
	return ""
}

// ResolveRoute computes display labels for an origin/destination pair.
//
// Both sides are labeled micro-to-macro first. When both resolve to the same
// string (both known only at country granularity, say), the pair is retried
// macro-to-micro; if that still collides, showing an identical, possibly
// misleading pair is worse than showing nothing, so both fall back to the
// generic placeholders.
func ResolveRoute(origin, destination *models.Location) (string, string) {
	o := ShortLabel(origin, true)
	d := ShortLabel(destination, true)

	if o != "" && o == d {
		o = ShortLabel(origin, false)
		d = ShortLabel(destination, false)
		if o == d {
			return DefaultOriginLabel, DefaultDestinationLabel
		}
	}

	if o == "" {
		o = DefaultOriginLabel
	}
	if d == "" {
		d = DefaultDestinationLabel
	}
	return o, d
}
