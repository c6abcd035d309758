package fake

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"
)

// FakeClient — локальная заглушка carrier-proxy сервера. Генерирует
// детерминированный payload по (carrier, trackingCode): часть посылок
// оказывается доставленной, у части история с пропущенными статусами,
// как в реальных ответах перевозчиков.
type FakeClient struct{}

func New() *FakeClient { return &FakeClient{} }

func (f *FakeClient) GetParcel(ctx context.Context, carrierID, trackingCode string) ([]byte, error) {
	now := time.Now().UTC()

	h := fnv.New32a()
	_, _ = h.Write([]byte(carrierID))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write([]byte(trackingCode))
	v := h.Sum32()

	type update struct {
		Title     string         `json:"title"`
		Timestamp string         `json:"timestamp"`
		Location  map[string]any `json:"location,omitempty"`
		Status    map[string]any `json:"status,omitempty"`
	}

	ts := func(hoursAgo int) string {
		return now.Add(-time.Duration(hoursAgo) * time.Hour).Format(time.RFC3339)
	}

	// Newest-first, как в настоящем payload.
	history := []update{
		{Title: "Arrived at sorting facility", Timestamp: ts(12)},
		{Title: "In transit", Timestamp: ts(30), Status: map[string]any{"type": "in-transit"}},
		{Title: "Item posted", Timestamp: ts(48), Status: map[string]any{"type": "posted"}},
	}
	delivered := v%5 == 0 // 20% посылок считаем доставленными
	if delivered {
		history = append([]update{
			{
				Title:     "Delivered",
				Timestamp: ts(1),
				Location:  map[string]any{"city": "Lisbon", "country": "Portugal"},
				Status:    map[string]any{"type": "delivered"},
			},
		}, history...)
	}

	payload := map[string]any{
		"id":           v,
		"name":         fmt.Sprintf("Parcel %s", trackingCode),
		"delivered":    delivered,
		"accentColor":  "#FFCC00",
		"carrier":      map[string]any{"id": carrierID, "name": carrierID},
		"trackingCode": trackingCode,
		"trackingUrl":  fmt.Sprintf("https://example.com/track/%s", trackingCode),
		"lastUpdated":  now.Format(time.RFC3339),
		"origin":       map[string]any{"country": "Germany"},
		"destination":  map[string]any{"city": "Lisbon", "country": "Portugal"},
		"history":      history,
	}

	return json.Marshal(payload)
}
