package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store implements the folio repositories and PriceSeries on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ folio.CustomerStore      = (*Store)(nil)
	_ folio.CustomerRepository = (*Store)(nil)
	_ folio.StockRepository    = (*Store)(nil)
	_ folio.PriceWriter        = (*Store)(nil)
	_ folio.PriceReader        = (*Store)(nil)
	_ folio.PriceSeries        = (*Store)(nil)
)

// New returns a Store on pool.
func New(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// querier is implemented by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed customer id %q", folio.ErrInvalidInput, id)
	}
	return u, nil
}

// GetHoldings implements folio.CustomerStore.
func (s *Store) GetHoldings(ctx context.Context, customerID string) ([]folio.Holding, error) {
	id, err := parseID(customerID)
	if err != nil {
		return nil, err
	}
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", folio.ErrCustomerNotFound, id)
	}
	return holdings(ctx, s.pool, id)
}

func holdings(ctx context.Context, q querier, id uuid.UUID) ([]folio.Holding, error) {
	rows, err := q.Query(ctx, `
		SELECT ticker, quantity FROM portfolio_stocks
		WHERE customer_id = $1 ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	res := make([]folio.Holding, 0)
	for rows.Next() {
		var ticker string
		var qty decimal.Decimal
		if err := rows.Scan(&ticker, &qty); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		res = append(res, folio.Holding{Ticker: ticker, Quantity: folio.Q(qty)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holdings: %w", err)
	}
	return res, nil
}

func replaceHoldings(ctx context.Context, tx pgx.Tx, id uuid.UUID, hs []folio.Holding) error {
	if _, err := tx.Exec(ctx, `DELETE FROM portfolio_stocks WHERE customer_id = $1`, id); err != nil {
		return fmt.Errorf("delete holdings: %w", err)
	}
	if len(hs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, h := range hs {
		batch.Queue(`
			INSERT INTO portfolio_stocks(customer_id, position, ticker, quantity)
			VALUES ($1, $2, $3, $4)`, id, i, h.Ticker, h.Quantity.Decimal())
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert holdings: %w", err)
	}
	return nil
}

func getCustomer(ctx context.Context, q querier, id uuid.UUID) (folio.Customer, error) {
	var c folio.Customer
	var cid uuid.UUID
	err := q.QueryRow(ctx, `
		SELECT id, name, address, created_at, updated_at
		FROM customers WHERE id = $1`, id).Scan(&cid, &c.Name, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return folio.Customer{}, fmt.Errorf("%w: %s", folio.ErrCustomerNotFound, id)
	}
	if err != nil {
		return folio.Customer{}, fmt.Errorf("query customer: %w", err)
	}
	c.ID = cid.String()
	if c.Holdings, err = holdings(ctx, q, id); err != nil {
		return folio.Customer{}, err
	}
	return c, nil
}

// CreateCustomer implements folio.CustomerRepository.
func (s *Store) CreateCustomer(ctx context.Context, n folio.NewCustomer) (folio.Customer, error) {
	n, err := n.Validate()
	if err != nil {
		return folio.Customer{}, err
	}
	id := uuid.New()
	now := time.Now().UTC()
	c := folio.Customer{ID: id.String(), Name: n.Name, Address: n.Address, Holdings: n.Holdings, CreatedAt: now, UpdatedAt: now}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO customers(id, name, address, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)`, id, c.Name, c.Address, c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert customer: %w", err)
		}
		return replaceHoldings(ctx, tx, id, c.Holdings)
	})
	if err != nil {
		return folio.Customer{}, err
	}
	return c, nil
}

// GetCustomer implements folio.CustomerRepository.
func (s *Store) GetCustomer(ctx context.Context, id string) (folio.Customer, error) {
	uid, err := parseID(id)
	if err != nil {
		return folio.Customer{}, err
	}
	return getCustomer(ctx, s.pool, uid)
}

// ListCustomers implements folio.CustomerRepository.
func (s *Store) ListCustomers(ctx context.Context, offset, limit int) ([]folio.Customer, error) {
	offset, limit = folio.Page(offset, limit)
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM customers ORDER BY created_at ASC, id ASC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scan customers: %w", err)
	}

	res := make([]folio.Customer, 0, len(ids))
	for _, id := range ids {
		c, err := getCustomer(ctx, s.pool, id)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

// UpdateCustomer implements folio.CustomerRepository.
func (s *Store) UpdateCustomer(ctx context.Context, id string, u folio.CustomerUpdate) (folio.Customer, error) {
	uid, err := parseID(id)
	if err != nil {
		return folio.Customer{}, err
	}
	var res folio.Customer
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		c, err := getCustomer(ctx, tx, uid)
		if err != nil {
			return err
		}
		if res, err = u.Apply(c); err != nil {
			return err
		}
		res.UpdatedAt = time.Now().UTC()
		_, err = tx.Exec(ctx, `
			UPDATE customers SET name = $1, address = $2, updated_at = $3
			WHERE id = $4`, res.Name, res.Address, res.UpdatedAt, uid)
		if err != nil {
			return fmt.Errorf("update customer: %w", err)
		}
		if u.Holdings != nil {
			return replaceHoldings(ctx, tx, uid, res.Holdings)
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
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", folio.ErrCustomerNotFound, uid)
	}
	return nil
}

// GetStock implements folio.StockRepository.
func (s *Store) GetStock(ctx context.Context, ticker string) (folio.Stock, error) {
	ticker = folio.NormalizeTicker(ticker)
	var st folio.Stock
	err := s.pool.QueryRow(ctx, `
		SELECT ticker, name, exchange, created_at, updated_at
		FROM stocks WHERE ticker = $1`, ticker).Scan(&st.Ticker, &st.Name, &st.Exchange, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return folio.Stock{}, fmt.Errorf("%w: %s", folio.ErrStockNotFound, ticker)
	}
	if err != nil {
		return folio.Stock{}, fmt.Errorf("query stock: %w", err)
	}
	return st, nil
}

// UpsertStock implements folio.PriceWriter. An existing stock keeps its name
// unless a new one, different from the ticker, is given.
func (s *Store) UpsertStock(ctx context.Context, st folio.Stock) error {
	ticker := folio.NormalizeTicker(st.Ticker)
	if st.Name == "" {
		st.Name = ticker
	}
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO stocks(ticker, name, exchange, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (ticker) DO UPDATE SET
			name = CASE WHEN EXCLUDED.name <> EXCLUDED.ticker THEN EXCLUDED.name ELSE stocks.name END,
			exchange = CASE WHEN EXCLUDED.exchange <> '' THEN EXCLUDED.exchange ELSE stocks.exchange END,
			updated_at = EXCLUDED.updated_at`,
		ticker, st.Name, st.Exchange, now)
	if err != nil {
		return fmt.Errorf("upsert stock %s: %w", ticker, err)
	}
	return nil
}

// nullable returns a NULL decimal for a zero price.
func nullable(m folio.Money) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: m.Decimal(), Valid: !m.IsZero()}
}

// UpsertPrices implements folio.PriceWriter.
func (s *Store) UpsertPrices(ctx context.Context, prices []folio.PricePoint) error {
	if len(prices) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range prices {
		if p.Close.IsNegative() {
			return fmt.Errorf("%w: negative price of %s on %s", folio.ErrInvalidInput, p.Ticker, p.Date)
		}
		batch.Queue(`
			INSERT INTO stock_prices(ticker, date, open_price, high_price, low_price, close_price, volume)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (ticker, date) DO UPDATE SET
				open_price = EXCLUDED.open_price,
				high_price = EXCLUDED.high_price,
				low_price = EXCLUDED.low_price,
				close_price = EXCLUDED.close_price,
				volume = EXCLUDED.volume`,
			folio.NormalizeTicker(p.Ticker), p.Date.Time(),
			nullable(p.Open), nullable(p.High), nullable(p.Low), p.Close.Decimal(), p.Volume)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert prices: %w", err)
		}
		return nil
	})
}

// PriceAt implements folio.PriceSeries.
func (s *Store) PriceAt(ctx context.Context, ticker string, on date.Date) (decimal.Decimal, error) {
	ticker = folio.NormalizeTicker(ticker)
	var price decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT close_price FROM stock_prices
		WHERE ticker = $1 AND date <= $2
		ORDER BY date DESC LIMIT 1`, ticker, on.Time()).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
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
	rows, err := s.pool.Query(ctx, `
		SELECT date, open_price, high_price, low_price, close_price, volume
		FROM stock_prices WHERE ticker = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`, ticker, from.Time(), to.Time())
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	res := make([]folio.PricePoint, 0)
	for rows.Next() {
		var on time.Time
		var open, high, low decimal.NullDecimal
		var closing decimal.Decimal
		p := folio.PricePoint{Ticker: ticker}
		if err := rows.Scan(&on, &open, &high, &low, &closing, &p.Volume); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		p.Date = date.Of(on)
		p.Open, p.High, p.Low = folio.M(open.Decimal, ""), folio.M(high.Decimal, ""), folio.M(low.Decimal, "")
		p.Close = folio.M(closing, "")
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prices: %w", err)
	}
	return res, nil
}
