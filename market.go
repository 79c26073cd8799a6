package folio

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// MarketData holds daily closing prices for a set of tickers in memory.
//
// It can be read concurrently once loaded, but writes must not overlap with
// any other access.
type MarketData struct {
	prices map[string]*date.History[float64]
}

// NewMarketData returns a new empty market data collection.
func NewMarketData() *MarketData {
	return &MarketData{prices: make(map[string]*date.History[float64])}
}

// Has returns true if the ticker has at least one price.
func (m *MarketData) Has(ticker string) bool {
	_, ok := m.prices[ticker]
	return ok
}

// Append sets the closing price of ticker on a given day.
func (m *MarketData) Append(ticker string, on date.Date, price float64) {
	h, ok := m.prices[ticker]
	if !ok {
		h = new(date.History[float64])
		m.prices[ticker] = h
	}
	h.Append(on, price)
}

// Add records the closing price of a daily bar.
func (m *MarketData) Add(p PricePoint) {
	m.Append(NormalizeTicker(p.Ticker), p.Date, p.Close.Decimal().InexactFloat64())
}

// Tickers returns the tickers in alphabetical order.
func (m *MarketData) Tickers() []string {
	tickers := make([]string, 0, len(m.prices))
	for t := range m.prices {
		tickers = append(tickers, t)
	}
	slices.Sort(tickers)
	return tickers
}

// Prices iterates over the prices of a ticker in chronological order.
func (m *MarketData) Prices(ticker string) iter.Seq2[date.Date, float64] {
	h, ok := m.prices[ticker]
	if !ok {
		return func(func(date.Date, float64) bool) {}
	}
	return h.Values()
}

// read a single value from the database for a given (ticker, day).
func (m *MarketData) read(ticker string, day date.Date) (float64, bool) {
	h, ok := m.prices[ticker]
	if !ok {
		return 0, false
	}
	return h.Get(day)
}

// PricePoints returns the prices of a ticker as daily bars with only a close.
func (m *MarketData) PricePoints(ticker string) []PricePoint {
	var res []PricePoint
	for on, price := range m.Prices(ticker) {
		res = append(res, PricePoint{Ticker: ticker, Date: on, Close: M(price, "")})
	}
	return res
}

// PriceAt implements PriceSeries.
func (m *MarketData) PriceAt(_ context.Context, ticker string, on date.Date) (decimal.Decimal, error) {
	ticker = NormalizeTicker(ticker)
	h, ok := m.prices[ticker]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unknown ticker %s", ErrPriceNotFound, ticker)
	}
	price, ok := h.ValueAsOf(on)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s has no price on or before %s", ErrPriceNotFound, ticker, on)
	}
	return decimal.NewFromFloat(price), nil
}
