package models

import (
	"time"

	"github.com/BearBump/ParcelBox/internal/status"
)

type Carrier struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GeoCoords — географические координаты. Либо обе, либо никакой.
type GeoCoords struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Location — структурированный адрес из payload перевозчика. Пустые строки
// означают отсутствие поля; локация, у которой пусто всё, схлопывается в nil
// ещё на этапе парсинга и сюда не попадает.
type Location struct {
	AddressLine string     `json:"addressLine,omitempty"`
	City        string     `json:"city,omitempty"`
	State       string     `json:"state,omitempty"`
	PostalCode  string     `json:"postalCode,omitempty"`
	Country     string     `json:"country,omitempty"`
	SearchQuery string     `json:"searchQuery,omitempty"`
	Coords      *GeoCoords `json:"coords,omitempty"`
}

// IsZero reports whether every field of the location is absent.
func (l Location) IsZero() bool {
	return l.AddressLine == "" && l.City == "" && l.State == "" &&
		l.PostalCode == "" && l.Country == "" && l.SearchQuery == "" &&
		l.Coords == nil
}

// ParcelUpdate — нормализованное событие истории: статус присутствует всегда,
// даже если перевозчик его не прислал.
type ParcelUpdate struct {
	ID          uint64          `json:"id,omitempty"`
	ParcelID    uint64          `json:"parcelId,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Location    *Location       `json:"location,omitempty"`
	Status      status.Instance `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Parcel — агрегат посылки: регистрационные данные, нормализованный снапшот
// от перевозчика (newest-first история) и поля планирования проверок.
// После сборки не мутируется: при каждой новой проверке строится заново.
type Parcel struct {
	ID           uint64       `json:"id"`
	Name         string       `json:"name"`
	Delivered    bool         `json:"delivered"`
	Carrier      Carrier      `json:"carrier"`
	AccentColor  uint32       `json:"accentColor"`
	TrackingCode string       `json:"trackingCode"`
	TrackingURL  string       `json:"trackingUrl"`
	CreationDate *time.Time   `json:"creationDate,omitempty"`
	LastUpdated  *time.Time   `json:"lastUpdated,omitempty"`
	Origin       *Location    `json:"origin,omitempty"`
	Destination  *Location    `json:"destination,omitempty"`
	History      []ParcelUpdate `json:"history,omitempty"`

	// Текущее состояние, денормализованное из History[0].
	Progress   float64 `json:"progress"`
	StatusType string  `json:"statusType,omitempty"`

	LastCheckedAt  *time.Time `json:"lastCheckedAt,omitempty"`
	NextCheckAt    time.Time  `json:"nextCheckAt"`
	CheckFailCount int32      `json:"checkFailCount"`
	LastError      *string    `json:"lastError,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// CurrentProgress returns the progress of the most recent update, or 0 when
// the history is empty.
func (p *Parcel) CurrentProgress() float64 {
	if len(p.History) == 0 {
		return 0
	}
	return p.History[0].Status.Progress
}

type ParcelCreateInput struct {
	CarrierID    string `json:"carrierId"`
	TrackingCode string `json:"trackingCode"`
	Name         string `json:"name"`
}
