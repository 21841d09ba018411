// Package console is the operator REPL: read-only views over the record store.
package console

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/cart"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/menu"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/order"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/users"
)

const (
	Banner  = "The CLI is running"
	Unknown = "Sorry, try again"

	lineWidth = 80
)

type command struct {
	name  string
	usage string
	help  string
	run   func(c *Console, ctx context.Context, input string) error
}

// Matched by substring in this order; the first hit wins.
var commands []command

func init() {
	commands = []command{
		{"man", "man", "Show this help page", (*Console).help},
		{"help", "help", `Alias of "man" command`, (*Console).help},
		{"exit", "exit", "Kill the CLI", nil},
		{"menu", "menu", "View all the current menu items", (*Console).menu},
		{"orders", "orders", "View the ids of all open carts", (*Console).orders},
		{"more order info", "more order info --{email}", "Lookup the cart of a user, grouped by item", (*Console).orderInfo},
		{"list users", "list users", "View all the users who have signed up", (*Console).users},
		{"more user info", "more user info --{email}", "Lookup the details of a specific user by email address", (*Console).userInfo},
		{"receipts", "receipts", "View the ids of all placed orders", (*Console).receipts},
		{"more receipt info", "more receipt info --{id}", "Lookup a placed order by receipt id", (*Console).receiptInfo},
	}
}

type Console struct {
	store storage.Store
	out   io.Writer
}

func New(store storage.Store, out io.Writer) *Console {
	return &Console{store: store, out: out}
}

// Run reads commands line by line until exit or end of input.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(c.out, Banner)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if c.Process(ctx, scanner.Text()) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Process runs one input line and reports whether the console should stop.
// Lookup failures are printed, never returned.
func (c *Console) Process(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}
	lower := strings.ToLower(input)
	for _, cmd := range commands {
		if !strings.Contains(lower, cmd.name) {
			continue
		}
		if cmd.run == nil {
			return true
		}
		if err := cmd.run(c, ctx, input); err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
		return false
	}
	fmt.Fprintln(c.out, Unknown)
	return false
}

func (c *Console) help(context.Context, string) error {
	c.rule()
	fmt.Fprintf(c.out, "%*s\n", (lineWidth+len("CLI MANUAL"))/2, "CLI MANUAL")
	c.rule()
	tw := tabwriter.NewWriter(c.out, 0, 4, 4, ' ', 0)
	for _, cmd := range commands {
		fmt.Fprintf(tw, "%s\t%s\n", cmd.usage, cmd.help)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	c.rule()
	return nil
}

func (c *Console) menu(ctx context.Context, _ string) error {
	var items []menu.Item
	if err := c.store.Read(ctx, storage.Menu, menu.RecordID, &items); err != nil {
		return notFound(err, "the menu is not provisioned")
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\n", it.ID, it.Name, it.Price)
	}
	return tw.Flush()
}

func (c *Console) orders(ctx context.Context, _ string) error {
	return c.list(ctx, storage.Carts)
}

func (c *Console) users(ctx context.Context, _ string) error {
	return c.list(ctx, storage.Users)
}

func (c *Console) receipts(ctx context.Context, _ string) error {
	return c.list(ctx, storage.Orders)
}

func (c *Console) list(ctx context.Context, collection string) error {
	ids, err := c.store.List(ctx, collection)
	if err != nil {
		return fmt.Errorf("list %s: %w", collection, err)
	}
	for _, id := range ids {
		fmt.Fprintln(c.out, id)
	}
	return nil
}

func (c *Console) orderInfo(ctx context.Context, input string) error {
	email, ok := argument(input)
	if !ok {
		return nil
	}
	var items []menu.Item
	if err := c.store.Read(ctx, storage.Carts, email, &items); err != nil {
		return notFound(err, "no cart for "+email)
	}
	sum := cart.Summarize(items)
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQUANTITY\tTOTAL")
	for _, l := range sum.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\n", l.ItemID, l.Name, l.Quantity, l.Total)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Total quantity: %d - Total amount: $ %.2f\n", sum.TotalQuantity, sum.TotalAmount)
	return nil
}

func (c *Console) userInfo(ctx context.Context, input string) error {
	email, ok := argument(input)
	if !ok {
		return nil
	}
	var u users.User
	if err := c.store.Read(ctx, storage.Users, email, &u); err != nil {
		return notFound(err, "no user "+email)
	}
	return c.dump(u.Profile())
}

func (c *Console) receiptInfo(ctx context.Context, input string) error {
	id, ok := argument(input)
	if !ok {
		return nil
	}
	var r order.Receipt
	if err := c.store.Read(ctx, storage.Orders, id, &r); err != nil {
		return notFound(err, "no receipt "+id)
	}
	return c.dump(r)
}

func (c *Console) dump(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *Console) rule() {
	fmt.Fprintln(c.out, strings.Repeat("-", lineWidth))
}

// argument returns the text after "--".
func argument(input string) (string, bool) {
	_, arg, found := strings.Cut(input, "--")
	arg = strings.TrimSpace(arg)
	return arg, found && arg != ""
}

func notFound(err error, msg string) error {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		return errors.New(msg)
	}
	return err
}
