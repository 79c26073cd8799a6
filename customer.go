package folio

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/etnz/folio/date"
)

const (
	MaxNameLength    = 255
	MaxAddressLength = 500
	// DefaultListLimit is the page size when none is given.
	DefaultListLimit = 100
	// MaxListLimit is the largest page size.
	MaxListLimit = 1000
)

// Customer is a customer and its portfolio.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Holdings  []Holding `json:"holdings"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCustomer is the content of a customer to be created.
type NewCustomer struct {
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	Holdings []Holding `json:"holdings"`
}

// Validate returns the normalized customer or an ErrInvalidInput.
func (n NewCustomer) Validate() (NewCustomer, error) {
	var err error
	if n.Name, err = checkText("name", n.Name, MaxNameLength); err != nil {
		return n, err
	}
	if n.Address, err = checkText("address", n.Address, MaxAddressLength); err != nil {
		return n, err
	}
	if n.Holdings, err = validHoldings(n.Holdings); err != nil {
		return n, err
	}
	return n, nil
}

// CustomerUpdate is a partial update of a customer, nil fields are unchanged.
// Holdings, when set, replace the whole portfolio.
type CustomerUpdate struct {
	Name     *string    `json:"name,omitempty"`
	Address  *string    `json:"address,omitempty"`
	Holdings *[]Holding `json:"holdings,omitempty"`
}

// Apply returns c updated by u, or an ErrInvalidInput.
func (u CustomerUpdate) Apply(c Customer) (Customer, error) {
	if u.Name != nil {
		name, err := checkText("name", *u.Name, MaxNameLength)
		if err != nil {
			return c, err
		}
		c.Name = name
	}
	if u.Address != nil {
		address, err := checkText("address", *u.Address, MaxAddressLength)
		if err != nil {
			return c, err
		}
		c.Address = address
	}
	if u.Holdings != nil {
		holdings, err := validHoldings(*u.Holdings)
		if err != nil {
			return c, err
		}
		c.Holdings = holdings
	}
	return c, nil
}

func checkText(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return value, invalidf("%s is required", field)
	}
	if utf8.RuneCountInString(value) > max {
		return value, invalidf("%s is longer than %d characters", field, max)
	}
	return value, nil
}

func validHoldings(holdings []Holding) ([]Holding, error) {
	res, err := NormalizeHoldings(holdings)
	if err != nil {
		return nil, err
	}
	if err := checkUnique(res); err != nil {
		return nil, err
	}
	return res, nil
}

// Page returns a valid (offset, limit) pair: a non positive limit is
// DefaultListLimit, and it never exceeds MaxListLimit.
func Page(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return offset, limit
}

// Stock describes a ticker.
type Stock struct {
	Ticker    string    `json:"ticker"`
	Name      string    `json:"name"`
	Exchange  string    `json:"exchange,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PricePoint is a daily bar of a ticker. Close is the price used for returns.
type PricePoint struct {
	Ticker string    `json:"ticker"`
	Date   date.Date `json:"date"`
	Open   Money     `json:"open"`
	High   Money     `json:"high"`
	Low    Money     `json:"low"`
	Close  Money     `json:"close"`
	Volume int64     `json:"volume"`
}

// CustomerRepository stores customers.
type CustomerRepository interface {
	CreateCustomer(ctx context.Context, n NewCustomer) (Customer, error)
	GetCustomer(ctx context.Context, id string) (Customer, error)
	ListCustomers(ctx context.Context, offset, limit int) ([]Customer, error)
	UpdateCustomer(ctx context.Context, id string, u CustomerUpdate) (Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
}

// StockRepository reads stocks.
type StockRepository interface {
	GetStock(ctx context.Context, ticker string) (Stock, error)
}

// PriceWriter stores stocks and their daily prices.
type PriceWriter interface {
	UpsertStock(ctx context.Context, s Stock) error
	UpsertPrices(ctx context.Context, prices []PricePoint) error
}

// PriceReader lists the stored daily prices of a ticker.
type PriceReader interface {
	ListPrices(ctx context.Context, ticker string, from, to date.Date) ([]PricePoint, error)
}
