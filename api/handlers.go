package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/polygon"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxBodySize = 1 << 20

// DefaultPriceDays is the range of listed prices when none is given.
const DefaultPriceDays = 30

// dateParam parses the query parameter name, it is required.
func dateParam(r *http.Request, name string) (date.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return date.Date{}, fmt.Errorf("%w: %s is required", folio.ErrInvalidInput, name)
	}
	on, err := date.Parse(v)
	if err != nil {
		return date.Date{}, fmt.Errorf("%w: %s: %w", folio.ErrInvalidInput, name, err)
	}
	return on, nil
}

// intParam parses the optional query parameter name.
func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%w: %s must be a non negative integer, got %q", folio.ErrInvalidInput, name, v)
	}
	return i, nil
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", folio.ErrInvalidInput, err)
	}
	return nil
}

// GET /api/v1/portfolio/{customerID}/returns?start_date=&end_date=
func (s *Server) portfolioReturns(w http.ResponseWriter, r *http.Request) {
	start, err := dateParam(r, "start_date")
	if err != nil {
		fail(w, r, err)
		return
	}
	end, err := dateParam(r, "end_date")
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := s.Returns.GetPortfolioReturns(r.Context(), chi.URLParam(r, "customerID"), start, end)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// POST /api/v1/customers
func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	var n folio.NewCustomer
	if err := decode(w, r, &n); err != nil {
		fail(w, r, err)
		return
	}
	c, err := s.Customers.CreateCustomer(r.Context(), n)
	if err != nil {
		fail(w, r, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("customer_id", c.ID).Int("holdings", len(c.Holdings)).Msg("customer created")
	w.Header().Set("Location", "/api/v1/customers/"+c.ID)
	writeJSON(w, r, http.StatusCreated, c)
}

// GET /api/v1/customers?skip=&limit=
func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	skip, err := intParam(r, "skip")
	if err != nil {
		fail(w, r, err)
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		fail(w, r, err)
		return
	}
	cs, err := s.Customers.ListCustomers(r.Context(), skip, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cs)
}

// GET /api/v1/customers/{customerID}
func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.Customers.GetCustomer(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

// PUT /api/v1/customers/{customerID}
func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var u folio.CustomerUpdate
	if err := decode(w, r, &u); err != nil {
		fail(w, r, err)
		return
	}
	c, err := s.Customers.UpdateCustomer(r.Context(), chi.URLParam(r, "customerID"), u)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

// DELETE /api/v1/customers/{customerID}
func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customerID")
	if err := s.Customers.DeleteCustomer(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("customer_id", id).Msg("customer deleted")
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/stocks/{ticker}
func (s *Server) getStock(w http.ResponseWriter, r *http.Request) {
	st, err := s.Stocks.GetStock(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

// GET /api/v1/stocks/{ticker}/prices?start_date=&end_date=
//
// Without dates it lists the last DefaultPriceDays days.
func (s *Server) listPrices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	end := date.Today()
	if q.Has("end_date") {
		var err error
		if end, err = dateParam(r, "end_date"); err != nil {
			fail(w, r, err)
			return
		}
	}
	start := end.Add(-DefaultPriceDays)
	if q.Has("start_date") {
		var err error
		if start, err = dateParam(r, "start_date"); err != nil {
			fail(w, r, err)
			return
		}
	}
	if start.After(end) {
		fail(w, r, fmt.Errorf("%w: start_date %s is after end_date %s", folio.ErrInvalidInput, start, end))
		return
	}

	st, err := s.Stocks.GetStock(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		fail(w, r, err)
		return
	}
	prices, err := s.Prices.ListPrices(r.Context(), st.Ticker, start, end)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, prices)
}

func (s *Server) noPopulator(w http.ResponseWriter, r *http.Request) bool {
	if s.Populator != nil {
		return false
	}
	writeError(w, r, http.StatusServiceUnavailable, CodeUpstream, "no market data provider configured")
	return true
}

// POST /api/v1/stocks/populate/{ticker}
func (s *Server) populate(w http.ResponseWriter, r *http.Request) {
	if s.noPopulator(w, r) {
		return
	}
	res, err := s.Populator.Populate(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if s.Cache != nil {
		s.Cache.Purge()
	}
	writeJSON(w, r, http.StatusOK, res)
}

// PopulateIndexResponse acknowledges a background index population.
type PopulateIndexResponse struct {
	Status  string `json:"status"`
	Tickers int    `json:"tickers"`
}

// POST /api/v1/stocks/populate-index
//
// The population runs in the background, detached from the request but
// logging with its request id.
func (s *Server) populateIndex(w http.ResponseWriter, r *http.Request) {
	if s.noPopulator(w, r) {
		return
	}
	tickers := s.Index
	if tickers == nil {
		tickers = polygon.Fortune500
	}
	tickers = slices.Clone(tickers)
	ctx := s.Jobs
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = zerolog.Ctx(r.Context()).WithContext(ctx)

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		logger := zerolog.Ctx(ctx)
		done, err := s.Populator.PopulateIndex(ctx, tickers)
		if err != nil {
			logger.Error().Err(err).Msg("index population failed")
			return
		}
		if s.Cache != nil {
			s.Cache.Purge()
		}
		logger.Info().Int("populated", len(done)).Msg("index population done")
	}()
	writeJSON(w, r, http.StatusAccepted, PopulateIndexResponse{Status: "accepted", Tickers: len(tickers)})
}
