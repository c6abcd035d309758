package parcel

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/pkg/errors"
)

type rawCarrier struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

type rawCoords struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type rawLocation struct {
	AddressLine *string    `json:"addressLine"`
	City        *string    `json:"city"`
	State       *string    `json:"state"`
	PostalCode  *string    `json:"postalCode"`
	Country     *string    `json:"country"`
	SearchQuery *string    `json:"searchQuery"`
	Coords      *rawCoords `json:"coords"`
}

type rawStatus struct {
	Type *string        `json:"type"`
	Data map[string]any `json:"data"`
}

type rawUpdate struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Timestamp   *string      `json:"timestamp"`
	Location    *rawLocation `json:"location"`
	Status      *rawStatus   `json:"status"`
}

type rawParcel struct {
	ID           *uint64      `json:"id"`
	Name         *string      `json:"name"`
	Delivered    bool         `json:"delivered"`
	AccentColor  *string      `json:"accentColor"`
	Carrier      *rawCarrier  `json:"carrier"`
	TrackingCode *string      `json:"trackingCode"`
	TrackingURL  *string      `json:"trackingUrl"`
	CreationDate *string      `json:"creationDate"`
	LastUpdated  *string      `json:"lastUpdated"`
	Origin       *rawLocation `json:"origin"`
	Destination  *rawLocation `json:"destination"`
	History      []rawUpdate  `json:"history"`
}

// Parse decodes a carrier parcel payload and normalizes its history. Parsing
// is all-or-nothing: a missing required field fails the whole parcel with a
// MalformedRecordError. Missing statuses, locations and descriptions are not
// errors and follow the documented fallbacks.
func Parse(data []byte) (*models.Parcel, error) {
	var raw rawParcel
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode parcel payload")
	}

	if raw.ID == nil {
		return nil, malformed("id")
	}
	if raw.Name == nil {
		return nil, malformed("name")
	}
	if raw.Carrier == nil || raw.Carrier.ID == nil {
		return nil, malformed("carrier.id")
	}
	if raw.Carrier.Name == nil {
		return nil, malformed("carrier.name")
	}
	if raw.TrackingCode == nil {
		return nil, malformed("trackingCode")
	}
	if raw.TrackingURL == nil {
		return nil, malformed("trackingUrl")
	}
	if raw.AccentColor == nil {
		return nil, malformed("accentColor")
	}
	if raw.LastUpdated == nil {
		return nil, malformed("lastUpdated")
	}

	color, err := ParseColor(*raw.AccentColor)
	if err != nil {
		return nil, malformedErr("accentColor", err)
	}

	lastUpdated, err := parseTimestamp(*raw.LastUpdated)
	if err != nil {
		return nil, malformedErr("lastUpdated", err)
	}

	var creationDate *time.Time
	if raw.CreationDate != nil {
		t, err := parseTimestamp(*raw.CreationDate)
		if err != nil {
			return nil, malformedErr("creationDate", err)
		}
		creationDate = &t
	}

	recs := make([]HistoryRecord, 0, len(raw.History))
	for i, ru := range raw.History {
		rec, err := parseHistoryRecord(ru)
		if err != nil {
			return nil, errors.Wrapf(err, "history[%d]", i)
		}
		recs = append(recs, rec)
	}
	history := NormalizeHistory(recs, time.Now().UTC())

	p := &models.Parcel{
		ID:           *raw.ID,
		Name:         *raw.Name,
		Delivered:    raw.Delivered,
		Carrier:      models.Carrier{ID: *raw.Carrier.ID, Name: *raw.Carrier.Name},
		AccentColor:  color,
		TrackingCode: *raw.TrackingCode,
		TrackingURL:  *raw.TrackingURL,
		CreationDate: creationDate,
		LastUpdated:  &lastUpdated,
		Origin:       parseLocation(raw.Origin),
		Destination:  parseLocation(raw.Destination),
		History:      history,
	}
	p.Progress = p.CurrentProgress()
	p.StatusType = history[0].Status.Kind.WireType()
	return p, nil
}

func parseHistoryRecord(ru rawUpdate) (HistoryRecord, error) {
	if ru.Title == nil {
		return HistoryRecord{}, malformed("title")
	}
	if ru.Timestamp == nil {
		return HistoryRecord{}, malformed("timestamp")
	}
	ts, err := parseTimestamp(*ru.Timestamp)
	if err != nil {
		return HistoryRecord{}, malformedErr("timestamp", err)
	}

	rec := HistoryRecord{
		Title:     *ru.Title,
		Timestamp: ts,
		Location:  parseLocation(ru.Location),
	}
	if ru.Description != nil {
		rec.Description = *ru.Description
	}
	if ru.Status != nil {
		if ru.Status.Type == nil {
			return HistoryRecord{}, malformed("status.type")
		}
		rec.Status = &StatusRecord{Type: *ru.Status.Type, Data: ru.Status.Data}
	}
	return rec, nil
}

// parseLocation canonicalizes: an absent object, or an object whose fields
// are all absent, collapses to nil. Coordinates need both lat and lng.
func parseLocation(rl *rawLocation) *models.Location {
	if rl == nil {
		return nil
	}

	loc := models.Location{}
	if rl.AddressLine != nil {
		loc.AddressLine = *rl.AddressLine
	}
	if rl.City != nil {
		loc.City = *rl.City
	}
	if rl.State != nil {
		loc.State = *rl.State
	}
	if rl.PostalCode != nil {
		loc.PostalCode = *rl.PostalCode
	}
	if rl.Country != nil {
		loc.Country = *rl.Country
	}
	if rl.SearchQuery != nil {
		loc.SearchQuery = *rl.SearchQuery
	}
	if rl.Coords != nil && rl.Coords.Lat != nil && rl.Coords.Lng != nil {
		loc.Coords = &models.GeoCoords{Latitude: *rl.Coords.Lat, Longitude: *rl.Coords.Lng}
	}

	if loc.IsZero() {
		return nil
	}
	return &loc
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseColor parses "#RRGGBB" or "#AARRGGBB" into a 32-bit ARGB value.
// An RGB string gets a fully opaque alpha channel.
func ParseColor(s string) (uint32, error) {
	if !strings.HasPrefix(s, "#") {
		return 0, fmt.Errorf("color %q: missing leading #", s)
	}
	hex := s[1:]
	switch len(hex) {
	case 6, 8:
	default:
		return 0, fmt.Errorf("color %q: want #RRGGBB or #AARRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %v", s, err)
	}
	if len(hex) == 6 {
		v |= 0xFF000000
	}
	return uint32(v), nil
}
