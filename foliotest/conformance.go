// Package foliotest provides shared tests for implementations of the folio interfaces.
package foliotest

import (
	"testing"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/stretchr/testify/require"
)

// Fixture is the price history every PriceSeries under test must be loaded with.
//
// AAPL trades on Jan 2 and Jan 5 2024 (a gap over the week-end), MSFT only on Jan 3.
var Fixture = []folio.PricePoint{
	{Ticker: "AAPL", Date: date.New(2024, 1, 2), Close: folio.M(185.64, ""), Open: folio.M(187.15, ""), High: folio.M(188.44, ""), Low: folio.M(183.89, ""), Volume: 82488700},
	{Ticker: "AAPL", Date: date.New(2024, 1, 5), Close: folio.M(181.18, ""), Open: folio.M(181.99, ""), High: folio.M(182.76, ""), Low: folio.M(180.17, ""), Volume: 62303300},
	{Ticker: "MSFT", Date: date.New(2024, 1, 3), Close: folio.M(370.6, ""), Open: folio.M(369.01, ""), High: folio.M(373.26, ""), Low: folio.M(368.51, ""), Volume: 23083500},
}

// RunPriceSeriesConformance checks that the PriceSeries returned by newSeries,
// loaded with Fixture, resolves the most recent price on or before a date.
func RunPriceSeriesConformance(t *testing.T, newSeries func(t *testing.T, points []folio.PricePoint) folio.PriceSeries) {
	t.Helper()
	series := newSeries(t, Fixture)

	testCases := []struct {
		name    string
		ticker  string
		on      date.Date
		want    string
		missing bool
	}{
		{name: "exact date", ticker: "AAPL", on: date.New(2024, 1, 2), want: "185.64"},
		{name: "lower case ticker", ticker: " aapl", on: date.New(2024, 1, 2), want: "185.64"},
		{name: "gap uses previous", ticker: "AAPL", on: date.New(2024, 1, 4), want: "185.64"},
		{name: "latest", ticker: "AAPL", on: date.New(2024, 1, 5), want: "181.18"},
		{name: "after last", ticker: "AAPL", on: date.New(2024, 3, 1), want: "181.18"},
		{name: "before first", ticker: "AAPL", on: date.New(2024, 1, 1), missing: true},
		{name: "other ticker", ticker: "MSFT", on: date.New(2024, 1, 5), want: "370.6"},
		{name: "other ticker before first", ticker: "MSFT", on: date.New(2024, 1, 2), missing: true},
		{name: "unknown ticker", ticker: "NVDA", on: date.New(2024, 1, 5), missing: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := series.PriceAt(t.Context(), tc.ticker, tc.on)
			if tc.missing {
				require.ErrorIs(t, err, folio.ErrPriceNotFound)
				return
			}
			require.NoError(t, err)
			require.Equalf(t, tc.want, got.String(), "PriceAt(%s, %s)", tc.ticker, tc.on)
		})
	}
}
