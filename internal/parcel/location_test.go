package parcel

import (
	"testing"

	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/stretchr/testify/require"
)

func TestShortLabel_addressLineAloneIsVerbatim(t *testing.T) {
	loc := &models.Location{AddressLine: "123 Main St"}
	require.Equal(t, "123 Main St", ShortLabel(loc, true))
	require.Equal(t, "123 Main St", ShortLabel(loc, false))
}

func TestShortLabel_structuredFieldsWinOverAddressLine(t *testing.T) {
	loc := &models.Location{AddressLine: "123 Main St", City: "Lisbon", Country: "Portugal"}
	require.Equal(t, "Lisbon", ShortLabel(loc, true))
	require.Equal(t, "Portugal", ShortLabel(loc, false))
}

func TestShortLabel_priorityOrder(t *testing.T) {
	loc := &models.Location{State: "Hessen", Country: "Germany"}
	require.Equal(t, "Hessen", ShortLabel(loc, true))
	require.Equal(t, "Germany", ShortLabel(loc, false))
}

func TestShortLabel_emptyCases(t *testing.T) {
	require.Empty(t, ShortLabel(nil, true))
	require.Empty(t, ShortLabel(&models.Location{PostalCode: "1000-001"}, true))
}

func TestResolveRoute_distinctLabels(t *testing.T) {
	o, d := ResolveRoute(
		&models.Location{City: "Berlin", Country: "Germany"},
		&models.Location{City: "Lisbon", Country: "Portugal"},
	)
	require.Equal(t, "Berlin", o)
	require.Equal(t, "Lisbon", d)
}

func TestResolveRoute_descendingBreaksTie(t *testing.T) {
	// Both ascend to "Lisboa" (city), but descending disambiguates by country.
	o, d := ResolveRoute(
		&models.Location{City: "Lisboa", Country: "Portugal"},
		&models.Location{City: "Lisboa", Country: "Brazil"},
	)
	require.Equal(t, "Portugal", o)
	require.Equal(t, "Brazil", d)
}

func TestResolveRoute_sameCountryFallsBackToPlaceholders(t *testing.T) {
	o, d := ResolveRoute(
		&models.Location{Country: "Germany"},
		&models.Location{Country: "Germany"},
	)
	require.Equal(t, DefaultOriginLabel, o)
	require.Equal(t, DefaultDestinationLabel, d)
}

func TestResolveRoute_absentLocations(t *testing.T) {
	o, d := ResolveRoute(nil, nil)
	require.Equal(t, DefaultOriginLabel, o)
	require.Equal(t, DefaultDestinationLabel, d)

	o, d = ResolveRoute(nil, &models.Location{Country: "Portugal"})
	require.Equal(t, DefaultOriginLabel, o)
	require.Equal(t, "Portugal", d)

	o, d = ResolveRoute(&models.Location{Country: "Portugal"}, nil)
	require.Equal(t, "Portugal", o)
	require.Equal(t, DefaultDestinationLabel, d)
}
