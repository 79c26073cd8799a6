// Package polygon fetches daily prices from the Polygon.io aggregates API and
// stores them.
package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
)

//go:generate mockgen -package=polygon -destination=mock_fetcher_test.go -source=client.go Fetcher

// DefaultBaseURL is the Polygon.io API endpoint.
const DefaultBaseURL = "https://api.polygon.io"

// ErrNoData is returned when Polygon has no bar for a ticker in the range.
var ErrNoData = errors.New("no data")

// HTTPClient is the subset of *http.Client used by Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher fetches daily bars.
type Fetcher interface {
	DailyCloses(ctx context.Context, ticker string, from, to date.Date) ([]folio.PricePoint, error)
}

// Client is a Polygon.io aggregates client.
type Client struct {
	apiKey  string
	baseURL string
	http    HTTPClient
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(h HTTPClient) Option { return func(c *Client) { c.http = h } }

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithDiskCache keeps successful responses in dir for the current day.
func WithDiskCache(dir string) Option {
	return func(c *Client) {
		if dir == "" {
			return
		}
		c.http = &http.Client{Transport: &diskCache{base: http.DefaultTransport, dir: dir}, Timeout: 30 * time.Second}
	}
}

// NewClient returns a Client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("polygon: missing API key")
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DailyCloses returns the adjusted daily bars of ticker between from and to
// (both included), in chronological order, or ErrNoData.
func (c *Client) DailyCloses(ctx context.Context, ticker string, from, to date.Date) ([]folio.PricePoint, error) {
	ticker = folio.NormalizeTicker(ticker)
	q := url.Values{}
	q.Set("adjusted", "true")
	q.Set("sort", "asc")
	q.Set("apiKey", c.apiKey)
	addr := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s?%s", c.baseURL, url.PathEscape(ticker), from, to, q.Encode())

	jobj, err := c.jget(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("polygon: aggregates of %s: %w", ticker, err)
	}
	return decodeAggregates(ticker, jobj)
}

// jget performs an HTTP GET request and decodes the JSON body.
func (c *Client) jget(ctx context.Context, addr string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// do not leak the api key in errors.
		return nil, fmt.Errorf("cannot http GET %v: %v", req.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return jobj, nil
}

// decodeAggregates reads the bars of an aggregates payload.
//
//	{"ticker":"AAPL","status":"OK","resultsCount":2,
//	 "results":[{"v":7.07e+07,"o":187.15,"c":185.64,"h":188.44,"l":183.89,"t":1704171600000}, ...]}
func decodeAggregates(ticker string, jobj any) ([]folio.PricePoint, error) {
	status, err := jsonpath.Get("$.status", jobj)
	if err != nil {
		return nil, fmt.Errorf("polygon: aggregates of %s: missing status: %w", ticker, err)
	}
	// DELAYED is what free plans get.
	if status != "OK" && status != "DELAYED" {
		return nil, fmt.Errorf("polygon: aggregates of %s: status %v: %w", ticker, status, ErrNoData)
	}
	jresults, err := jsonpath.Get("$.results[*]", jobj)
	if err != nil {
		return nil, fmt.Errorf("polygon: aggregates of %s: %w", ticker, ErrNoData)
	}
	results, ok := jresults.([]any)
	if !ok || len(results) == 0 {
		return nil, fmt.Errorf("polygon: aggregates of %s: %w", ticker, ErrNoData)
	}

	points := make([]folio.PricePoint, 0, len(results))
	for i, r := range results {
		bar, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("polygon: aggregates of %s: result %d is not an object", ticker, i)
		}
		num := func(name string) (float64, error) {
			v, ok := bar[name].(float64)
			if !ok {
				return 0, fmt.Errorf("polygon: aggregates of %s: result %d: %q is not a number", ticker, i, name)
			}
			return v, nil
		}
		var vals [6]float64
		for j, name := range []string{"t", "o", "h", "l", "c", "v"} {
			if vals[j], err = num(name); err != nil {
				return nil, err
			}
		}
		points = append(points, folio.PricePoint{
			Ticker: ticker,
			Date:   date.Of(time.UnixMilli(int64(vals[0])).UTC()),
			Open:   folio.M(vals[1], ""),
			High:   folio.M(vals[2], ""),
			Low:    folio.M(vals[3], ""),
			Close:  folio.M(vals[4], ""),
			Volume: int64(vals[5]),
		})
	}
	return points, nil
}
