package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/folio"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

type addCustomerCmd struct {
	name     string
	address  string
	holdings string
}

func (*addCustomerCmd) Name() string     { return "add-customer" }
func (*addCustomerCmd) Synopsis() string { return "create a customer and its portfolio" }
func (*addCustomerCmd) Usage() string {
	return `folio add-customer -name <name> -address <address> [-h AAPL:10,MSFT:2.5]

  Creates a customer, and prints its ID.
`
}

func (c *addCustomerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Customer name")
	f.StringVar(&c.address, "address", "", "Customer address")
	f.StringVar(&c.holdings, "h", "", "Holdings as comma separated ticker:quantity pairs")
}

func (c *addCustomerCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	holdings, err := folio.ParseHoldings(c.holdings)
	if err != nil {
		return failure(err)
	}
	store, err := OpenStore(ctx)
	if err != nil {
		return failure(err)
	}
	defer store.Close()

	customer, err := store.CreateCustomer(ctx, folio.NewCustomer{Name: c.name, Address: c.address, Holdings: holdings})
	if err != nil {
		return failure(err)
	}
	fmt.Fprintln(stdout, customer.ID)
	return subcommands.ExitSuccess
}

type customersCmd struct {
	skip  int
	limit int
	json  bool
}

func (*customersCmd) Name() string     { return "customers" }
func (*customersCmd) Synopsis() string { return "list customers" }
func (*customersCmd) Usage() string {
	return `folio customers [-skip <n>] [-limit <n>] [-json]

  Lists customers, oldest first.
`
}

func (c *customersCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.skip, "skip", 0, "Number of customers to skip")
	f.IntVar(&c.limit, "limit", folio.DefaultListLimit, "Maximum number of customers to list")
	f.BoolVar(&c.json, "json", false, "Print JSON instead of a report")
}

func (c *customersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := OpenStore(ctx)
	if err != nil {
		return failure(err)
	}
	defer store.Close()

	customers, err := store.ListCustomers(ctx, c.skip, c.limit)
	if err != nil {
		return failure(err)
	}
	if c.json {
		return printed(printJSON(customers))
	}
	printMarkdown(renderer.CustomersMarkdown(customers))
	return subcommands.ExitSuccess
}

type customerCmd struct {
	id   string
	json bool
}

func (*customerCmd) Name() string     { return "customer" }
func (*customerCmd) Synopsis() string { return "display a customer and its portfolio" }
func (*customerCmd) Usage() string {
	return `folio customer -c <customer> [-json]
`
}

func (c *customerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "c", "", "Customer ID")
	f.BoolVar(&c.json, "json", false, "Print JSON instead of a report")
}

func (c *customerCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := OpenStore(ctx)
	if err != nil {
		return failure(err)
	}
	defer store.Close()

	customer, err := store.GetCustomer(ctx, c.id)
	if err != nil {
		return failure(err)
	}
	if c.json {
		return printed(printJSON(customer))
	}
	printMarkdown(renderer.CustomerMarkdown(customer))
	return subcommands.ExitSuccess
}

type deleteCustomerCmd struct {
	id string
}

func (*deleteCustomerCmd) Name() string     { return "delete-customer" }
func (*deleteCustomerCmd) Synopsis() string { return "delete a customer and its portfolio" }
func (*deleteCustomerCmd) Usage() string {
	return `folio delete-customer -c <customer>
`
}

func (c *deleteCustomerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "c", "", "Customer ID")
}

func (c *deleteCustomerCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := OpenStore(ctx)
	if err != nil {
		return failure(err)
	}
	defer store.Close()

	if err := store.DeleteCustomer(ctx, c.id); err != nil {
		return failure(err)
	}
	fmt.Fprintf(stdout, "Deleted customer %s\n", c.id)
	return subcommands.ExitSuccess
}
