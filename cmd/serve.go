package cmd

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/api"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

// Version is the version reported by the API.
var Version = "dev"

type serveCmd struct {
	addr   string
	strict bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the HTTP API" }
func (*serveCmd) Usage() string {
	return `folio serve [-addr <host:port>] [-strict]

  Serves portfolio returns, customers and stocks over HTTP under /api/v1.
  Market data can be populated from Polygon.io when POLYGON_API_KEY is set.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", cfg.Server.Addr(), "Address to listen on")
	f.BoolVar(&c.strict, "strict", false, "Fail returns when a holding has no price, instead of excluding it")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := OpenStore(ctx)
	if err != nil {
		log.Error().Err(err).Msg("cannot open store")
		return subcommands.ExitFailure
	}
	defer store.Close()

	mode := cfg.Returns.Mode
	if c.strict {
		mode = folio.Strict
	}
	calc, cached := newCalculator(store, store, mode)
	server := &api.Server{
		Returns:   calc,
		Customers: store,
		Stocks:    store,
		Prices:    store,
		Cache:     cached,
		Health:    store.Ping,
		Jobs:      ctx,
		Options: api.Options{
			Name:           "folio",
			Version:        Version,
			Environment:    cfg.Env,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Timeout:        cfg.Server.RequestTimeout,
			EnableMetrics:  cfg.Server.EnableMetrics,
		},
	}
	populator, err := newPopulator(store)
	if err != nil {
		log.Error().Err(err).Msg("cannot create market data provider")
		return subcommands.ExitFailure
	}
	if populator != nil {
		server.Populator = populator
	} else {
		log.Warn().Msg("POLYGON_API_KEY not set, populate endpoints are disabled")
	}

	srv := &http.Server{
		Addr:              c.addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.addr).Str("driver", dbDriver).Stringer("mode", mode).Msg("serving")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
			return subcommands.ExitFailure
		}
	}
	server.Wait()
	return subcommands.ExitSuccess
}
