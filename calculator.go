package folio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/folio/date"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -package=folio_test -destination=mock_calculator_test.go -source=calculator.go CustomerStore,PriceSeries

// CustomerStore gives access to the holdings of customers.
type CustomerStore interface {
	// GetHoldings returns the holdings of a customer in a stable order, or
	// ErrCustomerNotFound.
	GetHoldings(ctx context.Context, customerID string) ([]Holding, error)
}

// PriceSeries resolves prices.
type PriceSeries interface {
	// PriceAt returns the most recent closing price of ticker on or before
	// date, or ErrPriceNotFound if there is none.
	PriceAt(ctx context.Context, ticker string, on date.Date) (decimal.Decimal, error)
}

// Mode is the policy applied to holdings without a price.
type Mode int

const (
	// Lenient drops holdings without a price at either date.
	Lenient Mode = iota
	// Strict fails the whole computation with ErrMissingPrice.
	Strict
)

func (m Mode) String() string {
	switch m {
	case Lenient:
		return "lenient"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode reads "lenient" or "strict", an empty string is Lenient.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return Lenient, nil
	case "strict":
		return Strict, nil
	default:
		return Lenient, fmt.Errorf("unknown returns mode %q", s)
	}
}

// DefaultConcurrency is the number of concurrent price lookups per request.
const DefaultConcurrency = 8

// Options configures a Calculator.
type Options struct {
	Mode Mode
	// Concurrency bounds the concurrent price lookups of a single request,
	// 1 is serial, 0 means DefaultConcurrency.
	Concurrency int
}

// Calculator computes portfolio returns.
//
// It is safe for concurrent use as long as its collaborators are.
type Calculator struct {
	customers CustomerStore
	prices    PriceSeries
	opts      Options
}

// NewCalculator returns a Calculator reading holdings from customers and
// prices from prices.
func NewCalculator(customers CustomerStore, prices PriceSeries, opts Options) *Calculator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Calculator{customers: customers, prices: prices, opts: opts}
}

// pricing is the outcome of the price lookups of a single holding.
type pricing struct {
	start, end decimal.Decimal
	ok         bool
}

// GetPortfolioReturns computes the returns of the customer's portfolio between
// start and end (both included).
//
// Invalid arguments fail with ErrInvalidInput before any lookup. In Lenient
// mode holdings without a price at either date are left out, in Strict mode
// they fail the call with ErrMissingPrice.
func (c *Calculator) GetPortfolioReturns(ctx context.Context, customerID string, start, end date.Date) (PortfolioReturns, error) {
	customerID, err := checkRequest(customerID, start, end)
	if err != nil {
		return PortfolioReturns{}, err
	}

	raw, err := c.customers.GetHoldings(ctx, customerID)
	if err != nil {
		if ctx.Err() != nil {
			return PortfolioReturns{}, ctx.Err()
		}
		return PortfolioReturns{}, upstream(err, "holdings of customer %s", customerID)
	}
	holdings, err := NormalizeHoldings(raw)
	if err != nil {
		return PortfolioReturns{}, fmt.Errorf("holdings of customer %s: %w", customerID, err)
	}

	results := make([]pricing, len(holdings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, h := range holdings {
		g.Go(func() error {
			p, err := c.price(gctx, h, start, end)
			results[i] = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return PortfolioReturns{}, ctx.Err()
		}
		return PortfolioReturns{}, err
	}

	logger := zerolog.Ctx(ctx)
	returns := make([]HoldingReturn, 0, len(holdings))
	for i, h := range holdings {
		if !results[i].ok {
			logger.Debug().Str("customer_id", customerID).Str("ticker", h.Ticker).
				Stringer("start", start).Stringer("end", end).
				Msg("holding excluded: no price")
			continue
		}
		returns = append(returns, ComputeHoldingReturn(h, results[i].start, results[i].end))
	}
	return Aggregate(customerID, start, end, returns), nil
}

// price looks up both prices of a holding. The end price is not looked up if
// the start price is missing.
func (c *Calculator) price(ctx context.Context, h Holding, start, end date.Date) (pricing, error) {
	startPrice, found, err := c.lookup(ctx, h.Ticker, start)
	if err != nil || !found {
		return pricing{}, err
	}
	endPrice, found, err := c.lookup(ctx, h.Ticker, end)
	if err != nil || !found {
		return pricing{}, err
	}
	return pricing{start: startPrice, end: endPrice, ok: true}, nil
}

// lookup returns the price of ticker on date. A missing price is not an error
// in Lenient mode.
func (c *Calculator) lookup(ctx context.Context, ticker string, on date.Date) (decimal.Decimal, bool, error) {
	p, err := c.prices.PriceAt(ctx, ticker, on)
	switch {
	case err == nil:
		return p, true, nil
	case errors.Is(err, ErrPriceNotFound):
		if c.opts.Mode == Strict {
			return decimal.Zero, false, fmt.Errorf("%w: %s on %s", ErrMissingPrice, ticker, on)
		}
		return decimal.Zero, false, nil
	case isContextError(err):
		return decimal.Zero, false, err
	default:
		return decimal.Zero, false, fmt.Errorf("%w: price of %s on %s: %w", ErrUpstreamUnavailable, ticker, on, err)
	}
}

// GetPeriodReturns splits [start, end] at the end of each period and returns
// the portfolio returns over every part, see date.Split.
func (c *Calculator) GetPeriodReturns(ctx context.Context, customerID string, start, end date.Date, period date.Period) ([]PortfolioReturns, error) {
	if _, err := checkRequest(customerID, start, end); err != nil {
		return nil, err
	}
	ranges := date.Split(start, end, period)
	res := make([]PortfolioReturns, 0, len(ranges))
	for _, r := range ranges {
		ret, err := c.GetPortfolioReturns(ctx, customerID, r.From, r.To)
		if err != nil {
			return nil, err
		}
		res = append(res, ret)
	}
	return res, nil
}

// checkRequest returns the trimmed customer id, or an ErrInvalidInput.
func checkRequest(customerID string, start, end date.Date) (string, error) {
	customerID = strings.TrimSpace(customerID)
	switch {
	case customerID == "":
		return "", invalidf("empty customer id")
	case start.IsZero():
		return "", invalidf("missing start date")
	case end.IsZero():
		return "", invalidf("missing end date")
	case start.After(end):
		return "", invalidf("start date %s is after end date %s", start, end)
	}
	return customerID, nil
}
