package folio_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	jan2 = date.New(2024, 1, 2)
	jan5 = date.New(2024, 1, 5)
)

// prices is a table of exact prices per ticker and date, for mocks.
type prices map[string]map[date.Date]float64

func (p prices) lookup(_ context.Context, ticker string, on date.Date) (decimal.Decimal, error) {
	v, ok := p[ticker][on]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s on %s", folio.ErrPriceNotFound, ticker, on)
	}
	return decimal.NewFromFloat(v), nil
}

// newCalculator returns a calculator over mocks serving holdings for "c1" and prices.
func newCalculator(t *testing.T, holdings []folio.Holding, table prices, opts folio.Options) *folio.Calculator {
	t.Helper()
	ctrl := gomock.NewController(t)
	customers := NewMockCustomerStore(ctrl)
	customers.EXPECT().GetHoldings(gomock.Any(), "c1").Return(holdings, nil).AnyTimes()
	series := NewMockPriceSeries(ctrl)
	series.EXPECT().PriceAt(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(table.lookup).AnyTimes()
	return folio.NewCalculator(customers, series, opts)
}

func requireMoney(t *testing.T, want float64, got folio.Money, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, got.Decimal().Equal(decimal.NewFromFloat(want)), "got %s want %v %v", got.Decimal(), want, fmt.Sprint(msgAndArgs...))
}

func TestGetPortfolioReturns_SingleHolding(t *testing.T) {
	calc := newCalculator(t,
		[]folio.Holding{folio.H("AAPL", 10)},
		prices{"AAPL": {jan2: 100, jan5: 110}},
		folio.Options{})

	got, err := calc.GetPortfolioReturns(t.Context(), "c1", jan2, jan5)
	require.NoError(t, err)

	require.Len(t, got.Holdings, 1)
	h := got.Holdings[0]
	assert.Equal(t, "AAPL", h.Ticker)
	requireMoney(t, 1000, h.StartValue, "start value")
	requireMoney(t, 1100, h.EndValue, "end value")
	requireMoney(t, 100, h.Return, "return")
	assert.InDelta(t, 10.0, float64(h.ReturnPercentage), 1e-9)

	requireMoney(t, 100, got.TotalReturn, "total return")
	assert.InDelta(t, 10.0, float64(got.ReturnPercentage), 1e-9)
	assert.Equal(t, "c1", got.CustomerID)
	assert.Equal(t, jan2, got.StartDate)
	assert.Equal(t, jan5, got.EndDate)
}

func TestGetPortfolioReturns_MissingStartPriceIsExcluded(t *testing.T) {
	ctrl := gomock.NewController(t)
	customers := NewMockCustomerStore(ctrl)
	customers.EXPECT().GetHoldings(gomock.Any(), "c1").
		Return([]folio.Holding{folio.H("AAPL", 10), folio.H("MSFT", 5)}, nil)

	series := NewMockPriceSeries(ctrl)
	series.EXPECT().PriceAt(gomock.Any(), "AAPL", jan2).Return(decimal.NewFromInt(100), nil)
	series.EXPECT().PriceAt(gomock.Any(), "AAPL", jan5).Return(decimal.NewFromInt(110), nil)
	// the end price of MSFT must not be looked up.
	series.EXPECT().PriceAt(gomock.Any(), "MSFT", jan2).Return(decimal.Zero, folio.ErrPriceNotFound)

	calc := folio.NewCalculator(customers, series, folio.Options{Concurrency: 1})
	got, err := calc.GetPortfolioReturns(t.Context(), "c1", jan2, jan5)
	require.NoError(t, err)

	require.Len(t, got.Holdings, 1)
	assert.Equal(t, "AAPL", got.Holdings[0].Ticker)
	requireMoney(t, 100, got.TotalReturn)
	assert.InDelta(t, 10.0, float64(got.ReturnPercentage), 1e-9)
}

func TestGetPortfolioReturns_MissingEndPriceIsExcluded(t *testing.T) {
	calc := newCalculator(t,
		[]folio.Holding{folio.H("AAPL", 10), folio.H("MSFT", 5)},
		prices{"AAPL": {jan2: 100, jan5: 110}, "MSFT": {jan2: 300}},
		folio.Options{})

	got, err := calc.GetPortfolioReturns(t.Context(), "c1", jan2, jan5)
	require.NoError(t, err)
	require.Len(t, got.Holdings, 1)
	assert.Equal(t, "AAPL", got.Holdings[0].Ticker)
}

func TestGetPortfolioReturns_EmptyHoldings(t *testing.T) {
	calc := newCalculator(t, nil, prices{}, folio.Options{})

	got, err := calc.GetPortfolioReturns(t.Context(), "c1", jan2, jan5)
	require.NoError(t, err)
	require.NotNil(t, got.Holdings)
	assert.Empty(t, got.Holdings)
	assert.True(t, got.TotalReturn.IsZero())
	assert.Equal(t, folio.Percent(0), got.ReturnPercentage)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"customer_id":"c1","start_date":"2024-01-02","end_date":"2024-01-05","total_return":0,"return_percentage":0,"holdings":[]}`, string(b))
}

func TestGetPortfolioReturns_InvalidInput(t *testing.T) {
	testCases := []struct {
		name       string
		customerID string
		start, end date.Date
	}{
		{"start after end", "c1", jan5, jan2},
		{"empty customer", "  ", jan2, jan5},
		{"zero start", "c1", date.Date{}, jan5},
		{"zero end", "c1", jan2, date.Date{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// mocks without expectations fail on any lookup.
			ctrl := gomock.NewController(t)
			calc := folio.NewCalculator(NewMockCustomerStore(ctrl), NewMockPriceSeries(ctrl), folio.Options{})

			_, err := calc.GetPortfolioReturns(t.Context(), tc.customerID, tc.start, tc.end)
			require.ErrorIs(t, err, folio.ErrInvalidInput)
		})
	}
}

func TestGetPortfolioReturns_CustomerNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	customers := NewMockCustomerStore(ctrl)
	customers.EXPECT().GetHoldings(gomock.Any(), "nobody").Return(nil, folio.ErrCustomerNotFound)
	calc := folio.NewCalculator(customers, NewMockPriceSeries(ctrl), folio.Options{})

	_, err := calc.GetPortfolioReturns(t.Context(), "nobody", jan2, jan5)
	require.ErrorIs(t, err, folio.ErrCustomerNotFound)
	require.NotErrorIs(t, err, folio.ErrUpstreamUnavailable)
}

func TestGetPortfolioReturns_SameDate(t *testing.T) {
	calc := newCalculator(t,
		[]folio.Holding{folio.H("AAPL", 10)},
		prices{"AAPL": {jan2: 100}},
		folio.Options{})

	got, err := calc.GetPortfolioReturns(t.Context(), "c1", jan2, jan2)
	require.NoError(t, err)
	require.Len(t, got.Holdings, 1)
	assert.True(t, got.TotalReturn.IsZero())
	assert.Equal(t, folio.Percent(0), got.ReturnPercentage)
}

func TestGetPortfolioReturns_Strict(t *testing.T) {
	calc := newCalculator(t,
		[]folio.Holding{folio.H("AAPL", 10), folio.H("MSFT", 5)},
		prices{"AAPL": {jan2: 100, jan5: 110}},
		folio.Options{Mode: folio.Strict})

	_, err := calc.GetPortfolioReturns(t.Context(), "c1", jan2, jan5)
	require.ErrorIs(t, err, folio.ErrMissingPrice)
	require.ErrorIs(t, err, folio.ErrPriceNotFound)
	assert.Contains(t, err.Error(), "MSFT")
}

func TestGetPortfolioReturns_UpstreamFailure(t *testing.T) {
	cause := errors.New("connection refused")
	ctrl := gomock.NewController(t)
	customers := NewMockCustomerStore(ctrl)
	customers.EXPECT().GetHoldings(gomock.Any(), "c1").Return([]folio.Holding{folio.H("AAPL", 10)}, nil)
	series := NewMockPriceSeries(ctrl)
	series.EXPECT().PriceAt(gomock.Any(), "AAPL", jan2).Return(decimal.Zero, cause)

	calc := folio.NewCalculator(customers, series, folio.Options{})
	_, err := calc.GetPortfolioReturns(t.Context(), "c1", jan2, jan5)
	require.ErrorIs(t, err, folio.ErrUpstreamUnavailable)
	require.ErrorIs(t, err, cause)
}

func TestGetPortfolioReturns_StoreFailure(t *testing.T) {
	cause := errors.New("database is locked")
	ctrl := gomock.NewController(t)
	customers := NewMockCustomerStore(ctrl)
	customers.EXPECT().GetHoldings(gomock.Any(), "c1").Return(nil, cause)

	calc := folio.NewCalculator(customers, NewMockPriceSeries(ctrl), folio.Options{})
	_, err := calc.GetPortfolioReturns(t.Context(), "c1", jan2, jan5)
	require.ErrorIs(t, err, folio.ErrUpstreamUnavailable)
	require.ErrorIs(t, err, cause)
}

func TestGetPortfolioReturns_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	ctrl := gomock.NewController(t)
	customers := NewMockCustomerStore(ctrl)
	customers.EXPECT().GetHoldings(gomock.Any(), "c1").Return([]folio.Holding{folio.H("AAPL", 10)}, nil)
	series := NewMockPriceSeries(ctrl)
	series.EXPECT().PriceAt(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ date.Date) (decimal.Decimal, error) {
			return decimal.Zero, ctx.Err()
		}).AnyTimes()

	calc := folio.NewCalculator(customers, series, folio.Options{})
	_, err := calc.GetPortfolioReturns(ctx, "c1", jan2, jan5)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, folio.ErrUpstreamUnavailable)
}

func TestGetPortfolioReturns_InvalidHoldings(t *testing.T) {
	testCases := []struct {
		name    string
		holding folio.Holding
	}{
		{"empty ticker", folio.H(" ", 10)},
		{"zero quantity", folio.H("AAPL", 0)},
		{"negative quantity", folio.H("AAPL", -1)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			calc := newCalculator(t, []folio.Holding{tc.holding}, prices{}, folio.Options{})
			_, err := calc.GetPortfolioReturns(t.Context(), "c1", jan2, jan5)
			require.ErrorIs(t, err, folio.ErrInvalidInput)
		})
	}
}

func TestGetPortfolioReturns_NormalizesTickers(t *testing.T) {
	calc := newCalculator(t,
		[]folio.Holding{folio.H(" aapl ", 10)},
		prices{"AAPL": {jan2: 100, jan5: 90}},
		folio.Options{})

	got, err := calc.GetPortfolioReturns(t.Context(), "c1", jan2, jan5)
	require.NoError(t, err)
	require.Len(t, got.Holdings, 1)
	assert.Equal(t, "AAPL", got.Holdings[0].Ticker)
	requireMoney(t, -100, got.TotalReturn)
	assert.InDelta(t, -10.0, float64(got.ReturnPercentage), 1e-9)
}

func TestGetPortfolioReturns_KeepsOrderAndIsIdempotent(t *testing.T) {
	var holdings []folio.Holding
	table := prices{}
	for i := range 40 {
		ticker := fmt.Sprintf("T%02d", 39-i) // reverse alphabetical order
		holdings = append(holdings, folio.H(ticker, i+1))
		if i%7 == 3 {
			continue // no price
		}
		table[ticker] = map[date.Date]float64{jan2: float64(10 + i), jan5: float64(12 + i)}
	}

	for _, concurrency := range []int{1, 4, 64} {
		t.Run(fmt.Sprint(concurrency), func(t *testing.T) {
			calc := newCalculator(t, holdings, table, folio.Options{Concurrency: concurrency})

			first, err := calc.GetPortfolioReturns(t.Context(), "c1", jan2, jan5)
			require.NoError(t, err)
			second, err := calc.GetPortfolioReturns(t.Context(), "c1", jan2, jan5)
			require.NoError(t, err)

			// holdings appear in input order, without the priceless ones.
			var want []string
			for i, h := range holdings {
				if i%7 != 3 {
					want = append(want, h.Ticker)
				}
			}
			var got []string
			for _, h := range first.Holdings {
				got = append(got, h.Ticker)
			}
			assert.Equal(t, want, got)

			// total return is the sum of the holdings' returns.
			var sum folio.Money
			for _, h := range first.Holdings {
				sum = sum.Add(h.Return)
			}
			assert.True(t, sum.Equal(first.TotalReturn))

			a, err := json.Marshal(first)
			require.NoError(t, err)
			b, err := json.Marshal(second)
			require.NoError(t, err)
			assert.Equal(t, string(a), string(b))
		})
	}
}

func TestParseMode(t *testing.T) {
	testCases := []struct {
		in      string
		want    folio.Mode
		wantErr bool
	}{
		{"", folio.Lenient, false},
		{"lenient", folio.Lenient, false},
		{"STRICT", folio.Strict, false},
		{"loose", folio.Lenient, true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := folio.ParseMode(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetPeriodReturns(t *testing.T) {
	jan31, feb29, mar5 := date.New(2024, 1, 31), date.New(2024, 2, 29), date.New(2024, 3, 5)
	calc := newCalculator(t,
		[]folio.Holding{folio.H("AAPL", 10)},
		prices{"AAPL": {jan2: 100, jan31: 110, feb29: 99, mar5: 99}},
		folio.Options{})

	got, err := calc.GetPeriodReturns(t.Context(), "c1", jan2, mar5, date.Monthly)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, jan2, got[0].StartDate)
	assert.Equal(t, jan31, got[0].EndDate)
	requireMoney(t, 100, got[0].TotalReturn)
	assert.Equal(t, jan31, got[1].StartDate, "periods chain")
	requireMoney(t, -110, got[1].TotalReturn)
	requireMoney(t, 0, got[2].TotalReturn)
}

func TestGetPeriodReturns_InvalidInput(t *testing.T) {
	calc := newCalculator(t, nil, prices{}, folio.Options{})
	_, err := calc.GetPeriodReturns(t.Context(), "c1", jan5, jan2, date.Monthly)
	require.ErrorIs(t, err, folio.ErrInvalidInput)
}
