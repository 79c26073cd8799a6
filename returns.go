package folio

import (
	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// HoldingReturn is the return of a single holding between two dates.
type HoldingReturn struct {
	Ticker           string   `json:"ticker"`
	Quantity         Quantity `json:"quantity"`
	StartPrice       Money    `json:"start_price"`
	EndPrice         Money    `json:"end_price"`
	StartValue       Money    `json:"start_value"`
	EndValue         Money    `json:"end_value"`
	Return           Money    `json:"return"`
	ReturnPercentage Percent  `json:"return_percentage"`
}

// PortfolioReturns is the return of a customer's portfolio between two dates.
//
// Holdings keeps the order of the customer's holdings and only lists the ones
// priced at both dates.
type PortfolioReturns struct {
	CustomerID       string          `json:"customer_id"`
	StartDate        date.Date       `json:"start_date"`
	EndDate          date.Date       `json:"end_date"`
	TotalReturn      Money           `json:"total_return"`
	ReturnPercentage Percent         `json:"return_percentage"`
	Holdings         []HoldingReturn `json:"holdings"`
}

// ComputeHoldingReturn values a holding at both prices.
//
// The percentage is relative to the start value, and exactly 0 when the start
// value is zero.
func ComputeHoldingReturn(h Holding, startPrice, endPrice decimal.Decimal) HoldingReturn {
	start := Money{value: startPrice}
	end := Money{value: endPrice}
	startValue := start.Mul(h.Quantity)
	endValue := end.Mul(h.Quantity)
	ret := endValue.Sub(startValue)
	return HoldingReturn{
		Ticker:           h.Ticker,
		Quantity:         h.Quantity,
		StartPrice:       start,
		EndPrice:         end,
		StartValue:       startValue,
		EndValue:         endValue,
		Return:           ret,
		ReturnPercentage: ret.Ratio(startValue),
	}
}

// Aggregate folds holding returns into the portfolio figures.
//
// The total return is the sum of the holding returns, and the percentage is
// relative to the sum of start values (0 when that sum is zero). The holdings
// are kept in the given order.
func Aggregate(customerID string, start, end date.Date, returns []HoldingReturn) PortfolioReturns {
	var total, invested Money
	holdings := make([]HoldingReturn, 0, len(returns))
	for _, r := range returns {
		total = total.Add(r.Return)
		invested = invested.Add(r.StartValue)
		holdings = append(holdings, r)
	}
	return PortfolioReturns{
		CustomerID:       customerID,
		StartDate:        start,
		EndDate:          end,
		TotalReturn:      total,
		ReturnPercentage: total.Ratio(invested),
		Holdings:         holdings,
	}
}

// StartValue returns the sum of the holdings' start values.
func (r PortfolioReturns) StartValue() Money {
	var sum Money
	for _, h := range r.Holdings {
		sum = sum.Add(h.StartValue)
	}
	return sum
}

// EndValue returns the sum of the holdings' end values.
func (r PortfolioReturns) EndValue() Money {
	var sum Money
	for _, h := range r.Holdings {
		sum = sum.Add(h.EndValue)
	}
	return sum
}
