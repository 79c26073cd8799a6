// Package api serves portfolio returns, customers and stocks over HTTP.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/polygon"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ReturnsService computes portfolio returns, see folio.Calculator.
type ReturnsService interface {
	GetPortfolioReturns(ctx context.Context, customerID string, start, end date.Date) (folio.PortfolioReturns, error)
}

// Populator fetches market data into the store, see polygon.Populator.
type Populator interface {
	Populate(ctx context.Context, ticker string) (polygon.Result, error)
	PopulateIndex(ctx context.Context, tickers []string) ([]polygon.Result, error)
}

// Purger drops cached prices after new ones are stored.
type Purger interface {
	Purge()
}

// Options configures the server surface.
type Options struct {
	Name           string
	Version        string
	Environment    string
	AllowedOrigins []string
	Timeout        time.Duration
	EnableMetrics  bool
}

// Server holds the services behind the HTTP API.
type Server struct {
	Returns   ReturnsService
	Customers folio.CustomerRepository
	Stocks    folio.StockRepository
	Prices    folio.PriceReader
	// Populator is nil when no market data provider is configured.
	Populator Populator
	// Index lists the tickers of populate-index, polygon.Fortune500 if nil.
	Index []string
	// Cache, if not nil, is purged after prices are populated.
	Cache Purger
	// Health checks the dependencies.
	Health func(ctx context.Context) error
	// Jobs is the parent context of background jobs, context.Background() if nil.
	Jobs    context.Context
	Options Options

	background sync.WaitGroup
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	m := newMetrics()
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(m))
	r.Use(recoverer)
	r.Use(cors(s.Options.AllowedOrigins))
	r.Use(timeout(s.Options.Timeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, CodeNotFound, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
	})

	r.Get("/", s.root)
	r.Get("/health", s.health)
	if s.Options.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", m.handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/portfolio/{customerID}/returns", s.portfolioReturns)

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", s.createCustomer)
			r.Get("/", s.listCustomers)
			r.Get("/{customerID}", s.getCustomer)
			r.Put("/{customerID}", s.updateCustomer)
			r.Delete("/{customerID}", s.deleteCustomer)
		})

		r.Route("/stocks", func(r chi.Router) {
			r.Post("/populate-index", s.populateIndex)
			r.Post("/populate/{ticker}", s.populate)
			r.Get("/{ticker}", s.getStock)
			r.Get("/{ticker}/prices", s.listPrices)
		})
	})
	return r
}

// Wait blocks until background jobs are done.
func (s *Server) Wait() { s.background.Wait() }

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"name":        s.Options.Name,
		"version":     s.Options.Version,
		"status":      "running",
		"environment": s.Options.Environment,
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.Health != nil {
		if err := s.Health(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "disconnected"})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy", "database": "connected"})
}
