package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

// returnsCmd holds the flags for the 'returns' subcommand.
type returnsCmd struct {
	customer string
	start    string
	end      string
	period   string
	strict   bool
	market   string
	json     bool
}

func (*returnsCmd) Name() string     { return "returns" }
func (*returnsCmd) Synopsis() string { return "compute the returns of a customer's portfolio" }
func (*returnsCmd) Usage() string {
	return `folio returns -c <customer> [-s <date>] [-d <date>] [-period <period>] [-strict] [-market <dir>] [-json]

  Computes the return of each holding of a customer between two dates, and
  the total return of the portfolio.

  Dates are ISO dates (2024-01-02) or relative to today (-1d, -2w, -3m, -1q, -1y).
  With -period (day, week, month, quarter, year), the range is split at the
  end of each period and one return is computed per part.
  With -market, prices are read from a market folder instead of the database.
`
}

func (c *returnsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.customer, "c", "", "Customer ID")
	f.StringVar(&c.start, "s", "-1m", "Start date")
	f.StringVar(&c.end, "d", "0d", "End date")
	f.StringVar(&c.period, "period", "", "Split the range by period (day, week, month, quarter, year)")
	f.BoolVar(&c.strict, "strict", cfg.Returns.Mode == folio.Strict, "Fail when a holding has no price, instead of excluding it")
	f.StringVar(&c.market, "market", "", "Market folder to read prices from")
	f.BoolVar(&c.json, "json", false, "Print JSON instead of a report")
}

func (c *returnsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, err := date.ParseRelative(c.start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing start date: %v\n", err)
		return subcommands.ExitUsageError
	}
	end, err := date.ParseRelative(c.end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing end date: %v\n", err)
		return subcommands.ExitUsageError
	}
	var period date.Period
	if c.period != "" {
		if period, err = date.ParsePeriod(c.period); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing period: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	store, err := OpenStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	var prices folio.PriceSeries = store
	if c.market != "" {
		m, err := folio.DecodeMarketData(c.market)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading market folder %q: %v\n", c.market, err)
			return subcommands.ExitFailure
		}
		prices = m
	}
	mode := folio.Lenient
	if c.strict {
		mode = folio.Strict
	}
	calc, _ := newCalculator(store, prices, mode)

	if c.period == "" {
		r, err := calc.GetPortfolioReturns(ctx, c.customer, start, end)
		if err != nil {
			return failure(err)
		}
		if c.json {
			return printed(printJSON(r))
		}
		printMarkdown(renderer.ReturnsMarkdown(r, currency))
		return subcommands.ExitSuccess
	}

	rs, err := calc.GetPeriodReturns(ctx, c.customer, start, end, period)
	if err != nil {
		return failure(err)
	}
	if c.json {
		return printed(printJSON(rs))
	}
	printMarkdown(renderer.PeriodReturnsMarkdown(c.customer, rs, currency))
	return subcommands.ExitSuccess
}
