package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/etnz/folio/polygon"
	"github.com/google/subcommands"
)

type populateCmd struct {
	index bool
	json  bool
}

func (*populateCmd) Name() string     { return "populate" }
func (*populateCmd) Synopsis() string { return "fetch recent daily prices from Polygon.io" }
func (*populateCmd) Usage() string {
	return `folio populate [-index] [-json] [<ticker>...]

  Fetches the last POLYGON_DAYS days of prices of each ticker, or of the
  default index with -index, and stores them. Requires POLYGON_API_KEY.
`
}

func (c *populateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.index, "index", false, "Populate every ticker of the default index")
	f.BoolVar(&c.json, "json", false, "Print JSON instead of a summary")
}

func (c *populateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tickers := f.Args()
	if c.index {
		tickers = append(tickers, polygon.Fortune500...)
	}
	if len(tickers) == 0 {
		fmt.Fprintln(f.Output(), "populate requires a ticker or -index")
		return subcommands.ExitUsageError
	}

	store, err := OpenStore(ctx)
	if err != nil {
		return failure(err)
	}
	defer store.Close()

	populator, err := newPopulator(store)
	if err != nil {
		return failure(err)
	}
	if populator == nil {
		return failure(errors.New("POLYGON_API_KEY is not set"))
	}

	var results []polygon.Result
	if len(tickers) == 1 {
		r, err := populator.Populate(ctx, tickers[0])
		if err != nil {
			return failure(err)
		}
		results = append(results, r)
	} else {
		results, err = populator.PopulateIndex(ctx, tickers)
		if err != nil {
			return failure(err)
		}
	}

	if c.json {
		return printed(printJSON(results))
	}
	for _, r := range results {
		fmt.Fprintf(stdout, "%-6s %d prices\n", r.Ticker, r.Prices)
	}
	fmt.Fprintf(stdout, "Populated %d of %d tickers\n", len(results), len(tickers))
	return subcommands.ExitSuccess
}
