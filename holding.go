package folio

import (
	"strings"
)

// MaxTickerLength is the longest ticker accepted, "BRK.B" fits.
const MaxTickerLength = 10

// Holding is a quantity of shares of a ticker held by a customer.
type Holding struct {
	Ticker   string   `json:"ticker"`
	Quantity Quantity `json:"quantity"`
}

// H returns a Holding, it is a convenient literal for tests and tools.
func H[T int | int64 | float64](ticker string, quantity T) Holding {
	return Holding{Ticker: ticker, Quantity: Q(quantity)}
}

// NormalizeTicker trims and upper-cases a ticker.
func NormalizeTicker(ticker string) string { return strings.ToUpper(strings.TrimSpace(ticker)) }

// Normalize returns the holding with a normalized ticker, or an ErrInvalidInput
// if the ticker is empty or too long, or the quantity is not positive.
func (h Holding) Normalize() (Holding, error) {
	h.Ticker = NormalizeTicker(h.Ticker)
	if h.Ticker == "" {
		return h, invalidf("holding with an empty ticker")
	}
	if len(h.Ticker) > MaxTickerLength {
		return h, invalidf("ticker %q is longer than %d characters", h.Ticker, MaxTickerLength)
	}
	if !h.Quantity.IsPositive() {
		return h, invalidf("holding %s has a non positive quantity %s", h.Ticker, h.Quantity)
	}
	return h, nil
}

// NormalizeHoldings normalizes every holding and returns a new slice in the
// same order. The result is never nil.
func NormalizeHoldings(holdings []Holding) ([]Holding, error) {
	res := make([]Holding, 0, len(holdings))
	for _, h := range holdings {
		n, err := h.Normalize()
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, nil
}

// checkUnique returns an ErrInvalidInput if a ticker appears twice.
func checkUnique(holdings []Holding) error {
	seen := make(map[string]struct{}, len(holdings))
	for _, h := range holdings {
		if _, dup := seen[h.Ticker]; dup {
			return invalidf("ticker %s is held twice", h.Ticker)
		}
		seen[h.Ticker] = struct{}{}
	}
	return nil
}

// ParseHoldings reads a comma separated list of TICKER:QUANTITY pairs, like
// "AAPL:10,MSFT:2.5". An empty string is an empty list.
func ParseHoldings(s string) ([]Holding, error) {
	res := []Holding{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		ticker, qty, ok := strings.Cut(item, ":")
		if !ok {
			return nil, invalidf("holding %q must be TICKER:QUANTITY", item)
		}
		q, err := ParseQuantity(strings.TrimSpace(qty))
		if err != nil {
			return nil, err
		}
		h, err := Holding{Ticker: ticker, Quantity: q}.Normalize()
		if err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	if err := checkUnique(res); err != nil {
		return nil, err
	}
	return res, nil
}
