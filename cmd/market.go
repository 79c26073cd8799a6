package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

type importMarketCmd struct {
	market string
}

func (*importMarketCmd) Name() string     { return "import-market" }
func (*importMarketCmd) Synopsis() string { return "import a market folder into the database" }
func (*importMarketCmd) Usage() string {
	return `folio import-market -market <dir>

  Stores every ticker and closing price of a market folder. Existing prices on
  the same days are overwritten.
`
}

func (c *importMarketCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.market, "market", "market", "Market folder")
}

func (c *importMarketCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := folio.DecodeMarketData(c.market)
	if err != nil {
		return failure(err)
	}
	store, err := OpenStore(ctx)
	if err != nil {
		return failure(err)
	}
	defer store.Close()

	count := 0
	for _, ticker := range m.Tickers() {
		if err := store.UpsertStock(ctx, folio.Stock{Ticker: ticker, Name: ticker}); err != nil {
			return failure(err)
		}
		prices := m.PricePoints(ticker)
		if err := store.UpsertPrices(ctx, prices); err != nil {
			return failure(err)
		}
		log.Debug().Str("ticker", ticker).Int("prices", len(prices)).Msg("ticker imported")
		count += len(prices)
	}
	fmt.Fprintf(stdout, "Imported %d prices of %d tickers\n", count, len(m.Tickers()))
	return subcommands.ExitSuccess
}

type exportMarketCmd struct {
	market  string
	tickers string
	start   string
	end     string
}

func (*exportMarketCmd) Name() string     { return "export-market" }
func (*exportMarketCmd) Synopsis() string { return "export prices from the database into a market folder" }
func (*exportMarketCmd) Usage() string {
	return `folio export-market -market <dir> -t <ticker,...> [-s <date>] [-d <date>]

  Adds the stored closing prices of the tickers within the range into a market
  folder. Prices already in the folder are kept unless the database has a price
  on the same day.
`
}

func (c *exportMarketCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.market, "market", "market", "Market folder")
	f.StringVar(&c.tickers, "t", "", "Comma separated tickers")
	f.StringVar(&c.start, "s", "-1y", "Start date")
	f.StringVar(&c.end, "d", "0d", "End date")
}

func (c *exportMarketCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var tickers []string
	for t := range strings.SplitSeq(c.tickers, ",") {
		if t = folio.NormalizeTicker(t); t != "" {
			tickers = append(tickers, t)
		}
	}
	if len(tickers) == 0 {
		fmt.Fprintln(f.Output(), "export-market requires -t")
		return subcommands.ExitUsageError
	}
	from, err := date.ParseRelative(c.start)
	if err != nil {
		return failure(fmt.Errorf("%w: %w", folio.ErrInvalidInput, err))
	}
	to, err := date.ParseRelative(c.end)
	if err != nil {
		return failure(fmt.Errorf("%w: %w", folio.ErrInvalidInput, err))
	}

	m, err := folio.DecodeMarketData(c.market)
	if err != nil {
		return failure(err)
	}
	store, err := OpenStore(ctx)
	if err != nil {
		return failure(err)
	}
	defer store.Close()

	count := 0
	for _, ticker := range tickers {
		prices, err := store.ListPrices(ctx, ticker, from, to)
		if err != nil {
			return failure(err)
		}
		for _, p := range prices {
			m.Add(p)
		}
		count += len(prices)
	}
	if err := folio.EncodeMarketData(c.market, m); err != nil {
		return failure(err)
	}
	fmt.Fprintf(stdout, "Exported %d prices of %d tickers\n", count, len(tickers))
	return subcommands.ExitSuccess
}
