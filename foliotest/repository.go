package foliotest

import (
	"fmt"
	"testing"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Repository is a store of customers and their holdings.
type Repository interface {
	folio.CustomerRepository
	folio.CustomerStore
}

// Market is a store of stocks and their prices.
type Market interface {
	folio.StockRepository
	folio.PriceWriter
	folio.PriceReader
	folio.PriceSeries
}

// holdingStrings formats holdings so that decimals compare by value.
func holdingStrings(hs []folio.Holding) []string {
	res := make([]string, len(hs))
	for i, h := range hs {
		res[i] = fmt.Sprintf("%s:%s", h.Ticker, h.Quantity)
	}
	return res
}

// RunRepositoryConformance checks the customer lifecycle on an empty repository.
func RunRepositoryConformance(t *testing.T, repo Repository) {
	t.Helper()
	ctx := t.Context()

	created, err := repo.CreateCustomer(ctx, folio.NewCustomer{
		Name:     "  Ada Lovelace ",
		Address:  "12 St James's Square, London",
		Holdings: []folio.Holding{folio.H("msft", 2.5), folio.H("AAPL", 10)},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Ada Lovelace", created.Name)
	assert.False(t, created.CreatedAt.IsZero())

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetCustomer(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Ada Lovelace", got.Name)
		assert.Equal(t, []string{"MSFT:2.5", "AAPL:10"}, holdingStrings(got.Holdings))
	})

	t.Run("holdings keep order", func(t *testing.T) {
		hs, err := repo.GetHoldings(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"MSFT:2.5", "AAPL:10"}, holdingStrings(hs))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := repo.CreateCustomer(ctx, folio.NewCustomer{Name: " ", Address: "somewhere"})
		require.ErrorIs(t, err, folio.ErrInvalidInput)
		_, err = repo.CreateCustomer(ctx, folio.NewCustomer{Name: "Bob", Address: "somewhere", Holdings: []folio.Holding{folio.H("AAPL", 1), folio.H("aapl", 2)}})
		require.ErrorIs(t, err, folio.ErrInvalidInput)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := repo.GetCustomer(ctx, "not-a-uuid")
		require.ErrorIs(t, err, folio.ErrInvalidInput)
		_, err = repo.GetHoldings(ctx, "not-a-uuid")
		require.ErrorIs(t, err, folio.ErrInvalidInput)
	})

	t.Run("not found", func(t *testing.T) {
		const unknown = "6f1c1c0e-8d3a-4a43-9d0a-6d1b7e2f0a11"
		_, err := repo.GetCustomer(ctx, unknown)
		require.ErrorIs(t, err, folio.ErrCustomerNotFound)
		_, err = repo.GetHoldings(ctx, unknown)
		require.ErrorIs(t, err, folio.ErrCustomerNotFound)
		require.ErrorIs(t, repo.DeleteCustomer(ctx, unknown), folio.ErrCustomerNotFound)
	})

	t.Run("update", func(t *testing.T) {
		name := "Augusta Ada King"
		got, err := repo.UpdateCustomer(ctx, created.ID, folio.CustomerUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, name, got.Name)
		assert.Equal(t, created.Address, got.Address)
		assert.Equal(t, []string{"MSFT:2.5", "AAPL:10"}, holdingStrings(got.Holdings), "holdings are unchanged")

		hs := []folio.Holding{folio.H("NVDA", 3)}
		got, err = repo.UpdateCustomer(ctx, created.ID, folio.CustomerUpdate{Holdings: &hs})
		require.NoError(t, err)
		assert.Equal(t, []string{"NVDA:3"}, holdingStrings(got.Holdings))

		stored, err := repo.GetHoldings(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"NVDA:3"}, holdingStrings(stored))

		empty := ""
		_, err = repo.UpdateCustomer(ctx, created.ID, folio.CustomerUpdate{Address: &empty})
		require.ErrorIs(t, err, folio.ErrInvalidInput)
	})

	t.Run("empty portfolio", func(t *testing.T) {
		c, err := repo.CreateCustomer(ctx, folio.NewCustomer{Name: "Charles Babbage", Address: "Marylebone"})
		require.NoError(t, err)
		hs, err := repo.GetHoldings(ctx, c.ID)
		require.NoError(t, err)
		assert.NotNil(t, hs)
		assert.Empty(t, hs)
	})

	t.Run("list", func(t *testing.T) {
		all, err := repo.ListCustomers(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, created.ID, all[0].ID, "oldest first")

		page, err := repo.ListCustomers(ctx, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, all[1].ID, page[0].ID)

		page, err = repo.ListCustomers(ctx, 5, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteCustomer(ctx, created.ID))
		_, err := repo.GetCustomer(ctx, created.ID)
		require.ErrorIs(t, err, folio.ErrCustomerNotFound)
	})
}

// RunMarketConformance checks stock and price storage on an empty market,
// including the PriceSeries conformance.
func RunMarketConformance(t *testing.T, m Market) {
	t.Helper()
	ctx := t.Context()

	_, err := m.GetStock(ctx, "AAPL")
	require.ErrorIs(t, err, folio.ErrStockNotFound)

	require.NoError(t, m.UpsertStock(ctx, folio.Stock{Ticker: "aapl", Name: "Apple Inc.", Exchange: "XNAS"}))
	require.NoError(t, m.UpsertStock(ctx, folio.Stock{Ticker: "MSFT", Name: "MSFT"}))
	require.NoError(t, m.UpsertPrices(ctx, Fixture))

	t.Run("stock", func(t *testing.T) {
		st, err := m.GetStock(ctx, "aapl")
		require.NoError(t, err)
		assert.Equal(t, "AAPL", st.Ticker)
		assert.Equal(t, "Apple Inc.", st.Name)
		assert.Equal(t, "XNAS", st.Exchange)
	})

	t.Run("upsert keeps name", func(t *testing.T) {
		require.NoError(t, m.UpsertStock(ctx, folio.Stock{Ticker: "AAPL", Name: "AAPL"}))
		st, err := m.GetStock(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "Apple Inc.", st.Name)
		assert.Equal(t, "XNAS", st.Exchange)
	})

	t.Run("list prices", func(t *testing.T) {
		got, err := m.ListPrices(ctx, "AAPL", date.New(2024, 1, 1), date.New(2024, 1, 31))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, date.New(2024, 1, 2), got[0].Date)
		assert.Equal(t, "185.64", got[0].Close.Decimal().String())
		assert.Equal(t, "187.15", got[0].Open.Decimal().String())
		assert.Equal(t, int64(82488700), got[0].Volume)
		assert.Equal(t, date.New(2024, 1, 5), got[1].Date)

		got, err = m.ListPrices(ctx, "AAPL", date.New(2024, 1, 3), date.New(2024, 1, 4))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("negative price", func(t *testing.T) {
		err := m.UpsertPrices(ctx, []folio.PricePoint{{Ticker: "AAPL", Date: date.New(2024, 1, 8), Close: folio.M(-1, "")}})
		require.ErrorIs(t, err, folio.ErrInvalidInput)
	})

	RunPriceSeriesConformance(t, func(t *testing.T, _ []folio.PricePoint) folio.PriceSeries { return m })

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, m.UpsertPrices(ctx, []folio.PricePoint{{Ticker: "MSFT", Date: date.New(2024, 1, 3), Close: folio.M(371, "")}}))
		got, err := m.PriceAt(ctx, "MSFT", date.New(2024, 1, 3))
		require.NoError(t, err)
		assert.Equal(t, "371", got.String())
	})
}
