package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/folio"
)

// CustomersMarkdown renders a list of customers.
func CustomersMarkdown(customers []folio.Customer) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Customers\n\n")
	if len(customers) == 0 {
		fmt.Fprint(&b, "No customer.\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| ID | Name | Address | Holdings |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|")
	for _, c := range customers {
		fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", c.ID, escape(c.Name), escape(c.Address), len(c.Holdings))
	}
	return b.String()
}

// CustomerMarkdown renders a customer and its holdings.
func CustomerMarkdown(c folio.Customer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escape(c.Name))
	fmt.Fprintf(&b, "- ID: %s\n", c.ID)
	fmt.Fprintf(&b, "- Address: %s\n", escape(c.Address))
	fmt.Fprintf(&b, "- Created: %s\n\n", c.CreatedAt.Format("2006-01-02 15:04"))

	if len(c.Holdings) == 0 {
		fmt.Fprint(&b, "No holdings.\n")
		return b.String()
	}
	fmt.Fprint(&b, "## Holdings\n\n")
	fmt.Fprintln(&b, "| Ticker | Quantity |")
	fmt.Fprintln(&b, "|:---|---:|")
	for _, h := range c.Holdings {
		fmt.Fprintf(&b, "| %s | %s |\n", h.Ticker, h.Quantity)
	}
	return b.String()
}

// escape protects table cells from user text.
func escape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
