// Package cache decorates a folio.PriceSeries with an in-memory cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// key identifies a cached lookup.
type key struct {
	ticker string
	on     date.Date
}

// entry stores a cached price, or a cached absence of price, with expiry.
type entry struct {
	expiresAt time.Time
	price     decimal.Decimal
	missing   bool
}

// Series caches prices per (ticker, date) for a TTL.
//
// ErrPriceNotFound answers are cached too, any other error is not. Concurrent
// lookups of the same key share a single call to the underlying series. That
// call is not cancelled with its callers: each caller only waits on its own
// context.
type Series struct {
	P        folio.PriceSeries
	TTL      time.Duration
	MaxItems int

	now   func() time.Time // for tests
	group singleflight.Group

	mu    sync.RWMutex
	items map[key]entry
	gen   uint64 // bumped by Purge
}

// New returns a Series caching p for ttl, holding at most maxItems entries
// (0 is unbounded).
func New(p folio.PriceSeries, ttl time.Duration, maxItems int) *Series {
	return &Series{P: p, TTL: ttl, MaxItems: maxItems}
}

func (c *Series) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// PriceAt implements folio.PriceSeries.
func (c *Series) PriceAt(ctx context.Context, ticker string, on date.Date) (decimal.Decimal, error) {
	ticker = folio.NormalizeTicker(ticker)
	if c.TTL <= 0 {
		return c.P.PriceAt(ctx, ticker, on)
	}
	k := key{ticker, on}

	c.mu.RLock()
	e, ok := c.items[k]
	gen := c.gen
	c.mu.RUnlock()
	if ok && c.clock().Before(e.expiresAt) {
		return e.get(k)
	}

	// the flight belongs to no caller, it keeps the values of the first one.
	flight := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fmt.Sprintf("%d/%s@%s", gen, ticker, on), func() (any, error) {
		price, err := c.P.PriceAt(flight, ticker, on)
		switch {
		case err == nil:
			c.put(gen, k, entry{price: price})
		case errors.Is(err, folio.ErrPriceNotFound):
			c.put(gen, k, entry{missing: true})
		}
		return price, err
	})

	select {
	case <-ctx.Done():
		return decimal.Zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if isContextError(res.Err) {
				// not ours: ctx is still live.
				return decimal.Zero, fmt.Errorf("%w: %s on %s: %v", folio.ErrUpstreamUnavailable, ticker, on, res.Err)
			}
			return decimal.Zero, res.Err
		}
		return res.Val.(decimal.Decimal), nil
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (e entry) get(k key) (decimal.Decimal, error) {
	if e.missing {
		return decimal.Zero, fmt.Errorf("%w: %s on or before %s", folio.ErrPriceNotFound, k.ticker, k.on)
	}
	return e.price, nil
}

// put stores e, unless the cache was purged since generation gen.
func (c *Series) put(gen uint64, k key, e entry) {
	now := c.clock()
	e.expiresAt = now.Add(c.TTL)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	if c.items == nil {
		c.items = make(map[key]entry)
	}
	c.items[k] = e
	if c.MaxItems <= 0 || len(c.items) <= c.MaxItems {
		return
	}
	// remove expired first, then arbitrary keys.
	for k, v := range c.items {
		if now.After(v.expiresAt) {
			delete(c.items, k)
		}
	}
	for k := range c.items {
		if len(c.items) <= c.MaxItems {
			break
		}
		delete(c.items, k)
	}
}

// Len returns the number of cached entries, expired ones included.
func (c *Series) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Purge drops every cached entry, typically after new prices were stored.
// Lookups in flight are not cached, and later lookups do not join them.
func (c *Series) Purge() {
	c.mu.Lock()
	c.items = nil
	c.gen++
	c.mu.Unlock()
}
