// Package cmd implements the folio command line application.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/folio"
	"github.com/etnz/folio/cache"
	"github.com/etnz/folio/config"
	"github.com/etnz/folio/polygon"
	"github.com/etnz/folio/store/postgres"
	"github.com/etnz/folio/store/sqlite"
	"github.com/google/subcommands"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	cfg = &config.Config{}

	dbDriver    string
	sqlitePath  string
	databaseURL string
	currency    string

	// stdout is where commands print their results.
	stdout io.Writer = os.Stdout
)

// Commands are all the folio subcommands, by group.
func commands() map[string][]subcommands.Command {
	return map[string][]subcommands.Command{
		"returns": {
			&returnsCmd{},
		},
		"customers": {
			&addCustomerCmd{},
			&customersCmd{},
			&customerCmd{},
			&deleteCustomerCmd{},
		},
		"market data": {
			&populateCmd{},
			&importMarketCmd{},
			&exportMarketCmd{},
		},
		"server": {
			&serveCmd{},
		},
	}
}

// Register declares the global flags, with defaults from c, and the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(commander *subcommands.Commander, c *config.Config) {
	cfg = c
	flag.StringVar(&dbDriver, "db-driver", c.Database.Driver, "Database driver (sqlite, postgres)")
	flag.StringVar(&sqlitePath, "sqlite-path", c.Database.SQLitePath, "Path to the SQLite database file")
	flag.StringVar(&databaseURL, "database-url", c.Database.URL, "PostgreSQL connection URL")
	flag.StringVar(&currency, "currency", c.Returns.Currency, "Currency used to display amounts")

	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for group, cmds := range commands() {
		for _, cmd := range cmds {
			commander.Register(cmd, group)
		}
	}
}

// Store is the storage used by the commands.
type Store interface {
	folio.CustomerStore
	folio.CustomerRepository
	folio.StockRepository
	folio.PriceWriter
	folio.PriceReader
	folio.PriceSeries
	Ping(ctx context.Context) error
	Close() error
}

// OpenStore opens the store selected by the global flags.
func OpenStore(ctx context.Context) (Store, error) {
	switch dbDriver {
	case "sqlite", "":
		s, err := sqlite.Open(sqlitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		if databaseURL == "" {
			return nil, errors.New("-database-url is required with the postgres driver")
		}
		pool, err := postgres.NewPool(ctx, postgres.Config{URL: databaseURL, MaxConns: cfg.Database.MaxConns})
		if err != nil {
			return nil, err
		}
		s := postgres.New(pool)
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", dbDriver)
	}
}

// newCalculator returns a calculator over customers and a cached prices.
func newCalculator(customers folio.CustomerStore, prices folio.PriceSeries, mode folio.Mode) (*folio.Calculator, *cache.Series) {
	cached := cache.New(prices, cfg.Returns.CacheTTL, cfg.Returns.CacheMaxItems)
	return folio.NewCalculator(customers, cached, folio.Options{
		Mode:        mode,
		Concurrency: cfg.Returns.Concurrency,
	}), cached
}

// newPopulator returns a Polygon populator writing into w, or nil if there is no API key.
func newPopulator(w folio.PriceWriter) (*polygon.Populator, error) {
	if cfg.Polygon.APIKey == "" {
		return nil, nil
	}
	opts := []polygon.Option{polygon.WithBaseURL(cfg.Polygon.BaseURL)}
	if cfg.Polygon.CacheDir != "" {
		opts = append(opts, polygon.WithDiskCache(cfg.Polygon.CacheDir))
	}
	client, err := polygon.NewClient(cfg.Polygon.APIKey, opts...)
	if err != nil {
		return nil, err
	}
	return &polygon.Populator{
		Fetcher:     client,
		Store:       w,
		Days:        cfg.Polygon.Days,
		Limiter:     polygon.PerMinute(cfg.Polygon.RPM),
		Concurrency: 4,
	}, nil
}

// printMarkdown renders md for the terminal, or prints it raw if it cannot.
func printMarkdown(md string) {
	if stdout != os.Stdout {
		fmt.Fprint(stdout, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		if out, err := r.Render(md); err == nil {
			fmt.Fprint(stdout, out)
			return
		}
	}
	fmt.Fprint(stdout, md)
}

// printJSON prints v indented.
func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// failure reports err and returns the matching exit status.
func failure(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.Is(err, folio.ErrInvalidInput) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

// printed returns the exit status of a print.
func printed(err error) subcommands.ExitStatus {
	if err != nil {
		return failure(err)
	}
	return subcommands.ExitSuccess
}
