package polygon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultDays is the number of days fetched by Populate.
const DefaultDays = 14

// Populator fetches recent prices and stores them.
type Populator struct {
	Fetcher Fetcher
	Store   folio.PriceWriter
	// Days is the length of the fetched range, DefaultDays if 0.
	Days int
	// Limiter gates calls to the Fetcher, nil is unlimited.
	Limiter *rate.Limiter
	// Concurrency bounds PopulateIndex, 1 if 0.
	Concurrency int

	today func() date.Date // for tests
}

// PerMinute returns a limiter allowing rpm requests per minute, nil if rpm is
// not positive.
func PerMinute(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// Result is the outcome of populating a ticker.
type Result struct {
	Ticker string `json:"ticker"`
	Prices int    `json:"prices"`
}

// Populate fetches the last Days days of ticker and upserts the stock and its
// prices. A ticker without any bar in the range is stored without prices.
func (p *Populator) Populate(ctx context.Context, ticker string) (Result, error) {
	ticker = folio.NormalizeTicker(ticker)
	if ticker == "" || len(ticker) > folio.MaxTickerLength {
		return Result{}, fmt.Errorf("%w: invalid ticker %q", folio.ErrInvalidInput, ticker)
	}
	days := p.Days
	if days <= 0 {
		days = DefaultDays
	}
	to := date.Today()
	if p.today != nil {
		to = p.today()
	}
	from := to.Add(-days)

	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return Result{}, err
		}
	}
	bars, err := p.Fetcher.DailyCloses(ctx, ticker, from, to)
	switch {
	case errors.Is(err, ErrNoData):
		zerolog.Ctx(ctx).Info().Str("ticker", ticker).Stringer("from", from).Stringer("to", to).Msg("no price data")
		bars = nil
	case err != nil && ctx.Err() != nil:
		return Result{}, ctx.Err()
	case err != nil:
		return Result{}, fmt.Errorf("%w: %w", folio.ErrUpstreamUnavailable, err)
	}

	if err := p.Store.UpsertStock(ctx, folio.Stock{Ticker: ticker, Name: ticker}); err != nil {
		return Result{}, fmt.Errorf("cannot store stock %s: %w", ticker, err)
	}
	if len(bars) > 0 {
		if err := p.Store.UpsertPrices(ctx, bars); err != nil {
			return Result{}, fmt.Errorf("cannot store prices of %s: %w", ticker, err)
		}
	}
	return Result{Ticker: ticker, Prices: len(bars)}, nil
}

// PopulateIndex populates every ticker concurrently. A failing ticker is
// logged and skipped. It returns the successful results in the order of
// tickers.
func (p *Populator) PopulateIndex(ctx context.Context, tickers []string) ([]Result, error) {
	logger := zerolog.Ctx(ctx)
	limit := p.Concurrency
	if limit <= 0 {
		limit = 1
	}

	results := make([]*Result, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, ticker := range tickers {
		g.Go(func() error {
			res, err := p.Populate(gctx, ticker)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn().Err(err).Str("ticker", ticker).Msg("cannot populate ticker, skipped")
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	done := make([]Result, 0, len(tickers))
	for _, r := range results {
		if r != nil {
			done = append(done, *r)
		}
	}
	logger.Info().Int("requested", len(tickers)).Int("populated", len(done)).Msg("index populated")
	return done, nil
}
