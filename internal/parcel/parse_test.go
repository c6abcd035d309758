package parcel

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/BearBump/ParcelBox/internal/status"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
  "id": 7,
  "name": "Panasonic Lumix DMC-GF1",
  "delivered": false,
  "accentColor": "#FFCC00",
  "carrier": {"id": "dhl", "name": "DHL"},
  "trackingCode": "CA767344619DE",
  "trackingUrl": "https://www.dhl.com/pt-pt/home/tracking.html?tracking-id=CA767344619DE",
  "creationDate": "2024-02-17T10:00:00.000Z",
  "lastUpdated": "2024-02-19T07:29:00.000Z",
  "origin": {"city": "Bonn", "country": "Germany"},
  "destination": {"city": "Lisbon", "country": "Portugal", "coords": {"lat": 38.7223, "lng": -9.1393}},
  "history": [
    {"title": "Out for delivery", "timestamp": "2024-02-19T07:29:00.000Z", "status": {"type": "delivering"}},
    {"title": "Arrived at delivery facility", "timestamp": "2024-02-19T05:02:00.000Z", "location": {"city": "Lisbon", "country": "Portugal"}},
    {"title": "Item posted", "description": "Order data transmitted electronically", "timestamp": "2024-02-17T10:00:00.000Z", "status": {"type": "posted", "data": {"office": "Bonn 1"}}}
  ]
}`

func TestParse_fullPayload(t *testing.T) {
	p, err := Parse([]byte(samplePayload))
	require.NoError(t, err)

	require.Equal(t, uint64(7), p.ID)
	require.Equal(t, "Panasonic Lumix DMC-GF1", p.Name)
	require.False(t, p.Delivered)
	require.Equal(t, "dhl", p.Carrier.ID)
	require.Equal(t, "DHL", p.Carrier.Name)
	require.Equal(t, uint32(0xFFFFCC00), p.AccentColor)
	require.Equal(t, "CA767344619DE", p.TrackingCode)
	require.NotNil(t, p.CreationDate)
	require.Equal(t, time.Date(2024, 2, 19, 7, 29, 0, 0, time.UTC), *p.LastUpdated)

	require.NotNil(t, p.Origin)
	require.Equal(t, "Bonn", p.Origin.City)
	require.NotNil(t, p.Destination.Coords)
	require.InDelta(t, 38.7223, p.Destination.Coords.Latitude, 1e-9)

	require.Len(t, p.History, 3)
	require.Equal(t, status.Delivering, p.History[0].Status.Kind)
	require.Equal(t, 0.90, p.History[0].Status.Progress)
	// Status-less entry after a near-delivery status keeps the seed carry.
	require.Equal(t, status.InTransit, p.History[1].Status.Kind)
	require.Equal(t, 0.70, p.History[1].Status.Progress)
	require.Equal(t, status.Posted, p.History[2].Status.Kind)
	require.Equal(t, "Bonn 1", p.History[2].Status.Data["office"])

	// Denormalized current state follows the newest update.
	require.Equal(t, 0.90, p.Progress)
	require.Equal(t, "delivering", p.StatusType)
}

func TestParse_emptyHistoryGetsPlaceholder(t *testing.T) {
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(samplePayload), &m))
	m["history"] = []any{}
	b, _ := json.Marshal(m)

	p, err := Parse(b)
	require.NoError(t, err)
	require.Len(t, p.History, 1)
	require.Empty(t, p.History[0].Title)
	require.Equal(t, status.InTransit, p.History[0].Status.Kind)
}

func TestParse_requiredFields(t *testing.T) {
	for _, field := range []string{"id", "name", "accentColor", "carrier", "trackingCode", "trackingUrl", "lastUpdated"} {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(samplePayload), &m))
		delete(m, field)
		b, _ := json.Marshal(m)

		_, err := Parse(b)
		require.Error(t, err, field)
		var mre *MalformedRecordError
		require.ErrorAs(t, err, &mre, field)
	}
}

func TestParse_historyRecordRequiresTitleAndTimestamp(t *testing.T) {
	for _, entry := range []string{
		`{"timestamp": "2024-02-19T07:29:00Z"}`,
		`{"title": "Posted"}`,
		`{"title": "Posted", "timestamp": "yesterday"}`,
	} {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(samplePayload), &m))
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(entry), &rec))
		m["history"] = []any{rec}
		b, _ := json.Marshal(m)

		_, err := Parse(b)
		var mre *MalformedRecordError
		require.ErrorAs(t, err, &mre, entry)
	}
}

func TestParse_nullStatusAndLocationAreFine(t *testing.T) {
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(samplePayload), &m))
	m["history"] = []any{map[string]any{
		"title":     "In transit",
		"timestamp": "2024-02-18T12:00:00Z",
		"location":  nil,
		"status":    nil,
	}}
	b, _ := json.Marshal(m)

	p, err := Parse(b)
	require.NoError(t, err)
	require.Nil(t, p.History[0].Location)
	require.Equal(t, status.InTransit, p.History[0].Status.Kind)
}

func TestParse_allNullLocationCollapses(t *testing.T) {
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(samplePayload), &m))
	m["origin"] = map[string]any{"addressLine": nil, "city": nil, "country": nil}
	// One coordinate alone is not enough.
	m["destination"] = map[string]any{"coords": map[string]any{"lat": 38.7}}
	b, _ := json.Marshal(m)

	p, err := Parse(b)
	require.NoError(t, err)
	require.Nil(t, p.Origin)
	require.Nil(t, p.Destination)
}

func TestParseColor(t *testing.T) {
	v, err := ParseColor("#FFCC00")
	require.NoError(t, err)
	require.Equal(t, uint32(0xFFFFCC00), v)

	v, err = ParseColor("#80FFCC00")
	require.NoError(t, err)
	require.Equal(t, uint32(0x80FFCC00), v)

	for _, bad := range []string{"FFCC00", "#FFCC0", "#GGCC00", ""} {
		_, err := ParseColor(bad)
		require.Error(t, err, bad)
	}
}
