package polygon

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"

	"github.com/etnz/folio/date"
	"github.com/rs/zerolog/log"
)

// diskCache implements a simple disk cache for HTTP responses.
//
// Keys contain the current day, so entries expire with it.
type diskCache struct {
	base  http.RoundTripper
	dir   string
	today func() date.Date // for tests
}

func (c *diskCache) key(req *http.Request) string {
	today := date.Today()
	if c.today != nil {
		today = c.today()
	}
	day := date.NewRange(today, date.Daily).Identifier()
	key := fmt.Sprintf("%s %s %s", day, req.Method, req.URL.String())
	return fmt.Sprintf("%s-%x", day, sha1.Sum([]byte(key)))
}

// RoundTrip implements the http.RoundTripper interface. It checks for a cached
// response on disk first, and caches successful responses.
func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	key := c.key(req)
	if cached, err := c.get(key, req); err == nil {
		return cached, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("method", req.Method).Str("host", req.URL.Host).Str("path", req.URL.Path).Int("status", resp.StatusCode).Msg("polygon request")
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		log.Warn().Err(err).Msg("cache write error (ignored)")
	}
	return resp, nil
}

// get retrieves a cached response from disk
func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// put stores a response to disk cache, the response body stays readable.
func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0o644)
}
