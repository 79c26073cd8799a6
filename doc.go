// Package folio computes the returns of customer equity portfolios.
//
// A customer holds quantities of tickers. Given two calendar dates, the
// [Calculator] resolves the closing price of every holding on (or before)
// each date, computes per-holding figures with [ComputeHoldingReturn] and folds
// them into [PortfolioReturns] with [Aggregate].
//
// The package only sees its collaborators through small interfaces:
//   - [CustomerStore] returns the holdings of a customer.
//   - [PriceSeries] resolves the most recent known price of a ticker on or
//     before a date.
//
// Customers, stocks and prices are persisted by the store packages, fetched
// from Polygon by the polygon package, or kept in a human-readable market
// folder (see [DecodeMarketData] and [EncodeMarketData]).
//
// Monetary figures and quantities are exact decimals ([Money], [Quantity]) and
// marshal as bare JSON numbers, percentages are [Percent].
package folio
