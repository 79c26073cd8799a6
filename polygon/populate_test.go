package polygon

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// recorder is an in-memory folio.PriceWriter.
type recorder struct {
	mu     sync.Mutex
	stocks []string
	prices []folio.PricePoint
	err    error
}

func (r *recorder) UpsertStock(_ context.Context, s folio.Stock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.stocks = append(r.stocks, s.Ticker)
	return nil
}

func (r *recorder) UpsertPrices(_ context.Context, prices []folio.PricePoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prices = append(r.prices, prices...)
	return nil
}

var today = date.New(2024, 1, 15)

func bar(ticker string, on date.Date, close float64) folio.PricePoint {
	return folio.PricePoint{Ticker: ticker, Date: on, Close: folio.M(close, "")}
}

func TestPopulate(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := NewMockFetcher(ctrl)
	fetcher.EXPECT().DailyCloses(gomock.Any(), "AAPL", date.New(2024, 1, 1), today).
		Return([]folio.PricePoint{bar("AAPL", date.New(2024, 1, 2), 185.64), bar("AAPL", date.New(2024, 1, 3), 184.25)}, nil)

	store := &recorder{}
	p := &Populator{Fetcher: fetcher, Store: store, today: func() date.Date { return today }}

	got, err := p.Populate(t.Context(), " aapl ")
	require.NoError(t, err)
	assert.Equal(t, Result{Ticker: "AAPL", Prices: 2}, got)
	assert.Equal(t, []string{"AAPL"}, store.stocks)
	assert.Len(t, store.prices, 2)
}

func TestPopulate_NoData(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := NewMockFetcher(ctrl)
	fetcher.EXPECT().DailyCloses(gomock.Any(), "NEW", gomock.Any(), gomock.Any()).Return(nil, ErrNoData)

	store := &recorder{}
	p := &Populator{Fetcher: fetcher, Store: store, Days: 5}
	got, err := p.Populate(t.Context(), "NEW")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Prices)
	assert.Equal(t, []string{"NEW"}, store.stocks)
}

func TestPopulate_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := NewMockFetcher(ctrl)
	fetcher.EXPECT().DailyCloses(gomock.Any(), "AAPL", gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
	p := &Populator{Fetcher: fetcher, Store: &recorder{}}

	_, err := p.Populate(t.Context(), "AAPL")
	require.ErrorIs(t, err, folio.ErrUpstreamUnavailable)

	_, err = p.Populate(t.Context(), "WAY.TOO.LONG")
	require.ErrorIs(t, err, folio.ErrInvalidInput)
}

func TestPopulateIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := NewMockFetcher(ctrl)
	fetcher.EXPECT().DailyCloses(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ticker string, from, to date.Date) ([]folio.PricePoint, error) {
			if ticker == "MSFT" {
				return nil, errors.New("rate limited")
			}
			return []folio.PricePoint{bar(ticker, to, 10)}, nil
		}).Times(4)

	store := &recorder{}
	p := &Populator{Fetcher: fetcher, Store: store, Concurrency: 3, Limiter: PerMinute(6000)}
	got, err := p.PopulateIndex(t.Context(), []string{"AAPL", "MSFT", "IBM", "KO"})
	require.NoError(t, err)

	// MSFT is skipped, the order is kept.
	assert.Equal(t, []Result{{"AAPL", 1}, {"IBM", 1}, {"KO", 1}}, got)
	assert.ElementsMatch(t, []string{"AAPL", "IBM", "KO"}, store.stocks)
}

func TestPopulateIndex_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	ctrl := gomock.NewController(t)
	fetcher := NewMockFetcher(ctrl)
	p := &Populator{Fetcher: fetcher, Store: &recorder{}, Limiter: PerMinute(1)}

	_, err := p.PopulateIndex(ctx, []string{"AAPL"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestFortune500(t *testing.T) {
	seen := map[string]bool{}
	for _, ticker := range Fortune500 {
		assert.Equal(t, folio.NormalizeTicker(ticker), ticker)
		assert.LessOrEqual(t, len(ticker), folio.MaxTickerLength)
		assert.False(t, seen[ticker], "duplicate %s", ticker)
		seen[ticker] = true
	}
}
