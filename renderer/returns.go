package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/folio"
)

// ReturnsMarkdown renders the returns of a portfolio, amounts in currency
// (no currency symbol if empty).
func ReturnsMarkdown(r folio.PortfolioReturns, currency string) string {
	var b strings.Builder
	in := func(m folio.Money) folio.Money { return m.In(currency) }

	fmt.Fprintf(&b, "# Portfolio Returns from %s to %s\n\n", r.StartDate, r.EndDate)
	fmt.Fprintf(&b, "Customer: %s\n\n", r.CustomerID)

	fmt.Fprintln(&b, "| Total Return | Return % |")
	fmt.Fprintln(&b, "|---:|---:|")
	fmt.Fprintf(&b, "| **%s** | **%s** |\n\n", in(r.TotalReturn).SignedString(), r.ReturnPercentage.SignedString())

	fmt.Fprintf(&b, "| Value on %s | Value on %s |\n", r.StartDate, r.EndDate)
	fmt.Fprintln(&b, "|---:|---:|")
	fmt.Fprintf(&b, "| %s | %s |\n\n", in(r.StartValue()), in(r.EndValue()))

	if len(r.Holdings) == 0 {
		fmt.Fprint(&b, "No holding is priced on both dates.\n")
		return b.String()
	}

	fmt.Fprint(&b, "## Holdings\n\n")
	fmt.Fprintln(&b, "| Ticker | Quantity | Start Price | End Price | Start Value | End Value | Return | Return % |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|---:|---:|")
	for _, h := range r.Holdings {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			h.Ticker,
			h.Quantity,
			in(h.StartPrice),
			in(h.EndPrice),
			in(h.StartValue),
			in(h.EndValue),
			in(h.Return).SignedString(),
			h.ReturnPercentage.SignedString(),
		)
	}
	return b.String()
}

// PeriodReturnsMarkdown renders consecutive returns of a portfolio, one row
// per range.
func PeriodReturnsMarkdown(customerID string, returns []folio.PortfolioReturns, currency string) string {
	var b strings.Builder
	if len(returns) == 0 {
		return "No returns.\n"
	}
	first, last := returns[0], returns[len(returns)-1]
	fmt.Fprintf(&b, "# Portfolio Returns from %s to %s\n\n", first.StartDate, last.EndDate)
	fmt.Fprintf(&b, "Customer: %s\n\n", customerID)

	fmt.Fprintln(&b, "| From | To | Start Value | End Value | Return | Return % |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|")
	for _, r := range returns {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			r.StartDate,
			r.EndDate,
			r.StartValue().In(currency),
			r.EndValue().In(currency),
			r.TotalReturn.In(currency).SignedString(),
			r.ReturnPercentage.SignedString(),
		)
	}

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "\n## Excluded Holdings\n\n")
		excluded := false
		for _, r := range returns {
			if len(r.Holdings) == 0 {
				fmt.Fprintf(w, "- %s to %s: no holding priced on both dates\n", r.StartDate, r.EndDate)
				excluded = true
			}
		}
		return excluded
	})
	return b.String()
}
