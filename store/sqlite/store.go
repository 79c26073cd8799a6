package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store implements the folio repositories and PriceSeries on SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time // for tests
}

var (
	_ folio.CustomerStore      = (*Store)(nil)
	_ folio.CustomerRepository = (*Store)(nil)
	_ folio.StockRepository    = (*Store)(nil)
	_ folio.PriceWriter        = (*Store)(nil)
	_ folio.PriceReader        = (*Store)(nil)
	_ folio.PriceSeries        = (*Store)(nil)
)

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

// parseID checks that id is a customer id.
func parseID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: malformed customer id %q", folio.ErrInvalidInput, id)
	}
	return u.String(), nil
}

// queryer is implemented by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetHoldings implements folio.CustomerStore.
func (s *Store) GetHoldings(ctx context.Context, customerID string) ([]folio.Holding, error) {
	id, err := parseID(customerID)
	if err != nil {
		return nil, err
	}
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM customers WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", folio.ErrCustomerNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	return holdings(ctx, s.db, id)
}

func holdings(ctx context.Context, q queryer, id string) ([]folio.Holding, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT ticker, quantity FROM portfolio_stocks
		WHERE customer_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	res := make([]folio.Holding, 0)
	for rows.Next() {
		var h folio.Holding
		var qty decimal.Decimal
		if err := rows.Scan(&h.Ticker, &qty); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		h.Quantity = folio.Q(qty)
		res = append(res, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holdings: %w", err)
	}
	return res, nil
}

func replaceHoldings(ctx context.Context, q queryer, id string, hs []folio.Holding) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM portfolio_stocks WHERE customer_id = ?`, id); err != nil {
		return fmt.Errorf("delete holdings: %w", err)
	}
	for i, h := range hs {
		_, err := q.ExecContext(ctx, `
			INSERT INTO portfolio_stocks(customer_id, position, ticker, quantity)
			VALUES (?, ?, ?, ?)`, id, i, h.Ticker, h.Quantity.String())
		if err != nil {
			return fmt.Errorf("insert holding %s: %w", h.Ticker, err)
		}
	}
	return nil
}

func getCustomer(ctx context.Context, q queryer, id string) (folio.Customer, error) {
	var c folio.Customer
	err := q.QueryRowContext(ctx, `
		SELECT id, name, address, created_at, updated_at
		FROM customers WHERE id = ?`, id).Scan(&c.ID, &c.Name, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return folio.Customer{}, fmt.Errorf("%w: %s", folio.ErrCustomerNotFound, id)
	}
	if err != nil {
		return folio.Customer{}, fmt.Errorf("query customer: %w", err)
	}
	if c.Holdings, err = holdings(ctx, q, id); err != nil {
		return folio.Customer{}, err
	}
	return c, nil
}

// inTx runs f in a transaction, committed if f succeeds.
func (s *Store) inTx(ctx context.Context, f func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := f(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CreateCustomer implements folio.CustomerRepository.
func (s *Store) CreateCustomer(ctx context.Context, n folio.NewCustomer) (folio.Customer, error) {
	n, err := n.Validate()
	if err != nil {
		return folio.Customer{}, err
	}
	now := s.clock()
	c := folio.Customer{
		ID:        uuid.NewString(),
		Name:      n.Name,
		Address:   n.Address,
		Holdings:  n.Holdings,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO customers(id, name, address, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`, c.ID, c.Name, c.Address, c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert customer: %w", err)
		}
		return replaceHoldings(ctx, tx, c.ID, c.Holdings)
	})
	if err != nil {
		return folio.Customer{}, err
	}
	return c, nil
}

// GetCustomer implements folio.CustomerRepository.
func (s *Store) GetCustomer(ctx context.Context, id string) (folio.Customer, error) {
	id, err := parseID(id)
	if err != nil {
		return folio.Customer{}, err
	}
	return getCustomer(ctx, s.db, id)
}

// ListCustomers implements folio.CustomerRepository.
func (s *Store) ListCustomers(ctx context.Context, offset, limit int) ([]folio.Customer, error) {
	offset, limit = folio.Page(offset, limit)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM customers ORDER BY created_at ASC, id ASC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}

	res := make([]folio.Customer, 0, len(ids))
	for _, id := range ids {
		c, err := getCustomer(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

// UpdateCustomer implements folio.CustomerRepository.
func (s *Store) UpdateCustomer(ctx context.Context, id string, u folio.CustomerUpdate) (folio.Customer, error) {
	id, err := parseID(id)
	if err != nil {
		return folio.Customer{}, err
	}
	var res folio.Customer
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		c, err := getCustomer(ctx, tx, id)
		if err != nil {
			return err
		}
		if res, err = u.Apply(c); err != nil {
			return err
		}
		res.UpdatedAt = s.clock()
		_, err = tx.ExecContext(ctx, `
			UPDATE customers SET name = ?, address = ?, updated_at = ?
			WHERE id = ?`, res.Name, res.Address, res.UpdatedAt, id)
		if err != nil {
			return fmt.Errorf("update customer: %w", err)
		}
		if u.Holdings != nil {
			return replaceHoldings(ctx, tx, id, res.Holdings)
		}
		return nil
	})
	if err != nil {
		return folio.Customer{}, err
	}
	return res, nil
}

// DeleteCustomer implements folio.CustomerRepository.
func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM portfolio_stocks WHERE customer_id = ?`, id); err != nil {
			return fmt.Errorf("delete holdings: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete customer: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", folio.ErrCustomerNotFound, id)
		}
		return nil
	})
}

// GetStock implements folio.StockRepository.
func (s *Store) GetStock(ctx context.Context, ticker string) (folio.Stock, error) {
	ticker = folio.NormalizeTicker(ticker)
	var st folio.Stock
	err := s.db.QueryRowContext(ctx, `
		SELECT ticker, name, exchange, created_at, updated_at
		FROM stocks WHERE ticker = ?`, ticker).Scan(&st.Ticker, &st.Name, &st.Exchange, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return folio.Stock{}, fmt.Errorf("%w: %s", folio.ErrStockNotFound, ticker)
	}
	if err != nil {
		return folio.Stock{}, fmt.Errorf("query stock: %w", err)
	}
	return st, nil
}

// UpsertStock implements folio.PriceWriter. An existing stock keeps its name
// unless a new non empty one is given.
func (s *Store) UpsertStock(ctx context.Context, st folio.Stock) error {
	ticker := folio.NormalizeTicker(st.Ticker)
	if st.Name == "" {
		st.Name = ticker
	}
	now := s.clock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stocks(ticker, name, exchange, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET
			name = CASE WHEN excluded.name != excluded.ticker THEN excluded.name ELSE stocks.name END,
			exchange = CASE WHEN excluded.exchange != '' THEN excluded.exchange ELSE stocks.exchange END,
			updated_at = excluded.updated_at`,
		ticker, st.Name, st.Exchange, now, now)
	if err != nil {
		return fmt.Errorf("upsert stock %s: %w", ticker, err)
	}
	return nil
}

// nullable returns nil for a zero price, stored as NULL.
func nullable(m folio.Money) any {
	if m.IsZero() {
		return nil
	}
	return m.Decimal().String()
}

// UpsertPrices implements folio.PriceWriter.
func (s *Store) UpsertPrices(ctx context.Context, prices []folio.PricePoint) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO stock_prices(ticker, date, open_price, high_price, low_price, close_price, volume)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(ticker, date) DO UPDATE SET
				open_price = excluded.open_price,
				high_price = excluded.high_price,
				low_price = excluded.low_price,
				close_price = excluded.close_price,
				volume = excluded.volume`)
		if err != nil {
			return fmt.Errorf("prepare upsert price: %w", err)
		}
		defer stmt.Close()
		for _, p := range prices {
			if p.Close.IsNegative() {
				return fmt.Errorf("%w: negative price of %s on %s", folio.ErrInvalidInput, p.Ticker, p.Date)
			}
			_, err := stmt.ExecContext(ctx, folio.NormalizeTicker(p.Ticker), p.Date.String(),
				nullable(p.Open), nullable(p.High), nullable(p.Low), p.Close.Decimal().String(), p.Volume)
			if err != nil {
				return fmt.Errorf("upsert price of %s on %s: %w", p.Ticker, p.Date, err)
			}
		}
		return nil
	})
}

// PriceAt implements folio.PriceSeries.
func (s *Store) PriceAt(ctx context.Context, ticker string, on date.Date) (decimal.Decimal, error) {
	ticker = folio.NormalizeTicker(ticker)
	var price decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT close_price FROM stock_prices
		WHERE ticker = ? AND date <= ?
		ORDER BY date DESC LIMIT 1`, ticker, on.String()).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%w: %s on or before %s", folio.ErrPriceNotFound, ticker, on)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("query price: %w", err)
	}
	return price, nil
}

// ListPrices implements folio.PriceReader.
func (s *Store) ListPrices(ctx context.Context, ticker string, from, to date.Date) ([]folio.PricePoint, error) {
	ticker = folio.NormalizeTicker(ticker)
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, open_price, high_price, low_price, close_price, volume
		FROM stock_prices WHERE ticker = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`, ticker, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	res := make([]folio.PricePoint, 0)
	for rows.Next() {
		var on string
		var open, high, low decimal.NullDecimal
		var closing decimal.Decimal
		p := folio.PricePoint{Ticker: ticker}
		if err := rows.Scan(&on, &open, &high, &low, &closing, &p.Volume); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		if p.Date, err = date.Parse(on); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		p.Open, p.High, p.Low = folio.M(open.Decimal, ""), folio.M(high.Decimal, ""), folio.M(low.Decimal, "")
		p.Close = folio.M(closing, "")
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prices: %w", err)
	}
	return res, nil
}
