// Command mesa is a customer-side client for one table. The cart lives on
// this machine until it is submitted or cleared.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/apperror"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/cart"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/menu"

	"github.com/joho/godotenv"
)

const usage = `usage: mesa [flags] <command>

commands:
  menu            list the menu for the table
  add <itemId>    add one unit of an item to the cart
  show            print the cart and its total
  clear           empty the cart
  submit          send the cart to the kitchen
  pay             open a payment session for the cart
`

type app struct {
	api        *apiClient
	session    *cart.Session
	minorUnits int32
	currency   string
	out        io.Writer
}

func main() {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("mesa", flag.ExitOnError)
	apiURL := fs.String("api", envOr("MESA_API_URL", "http://localhost:8080"), "service base URL")
	tableRaw := fs.String("table", os.Getenv("MESA_TABLE"), "table id")
	token := fs.String("token", os.Getenv("MESA_TABLE_TOKEN"), "signed table token from the QR link")
	dir := fs.String("dir", envOr("MESA_CART_DIR", defaultCartDir()), "directory for the local cart")
	currency := fs.String("currency", envOr("CURRENCY", "ARS"), "currency label")
	minor := fs.Int("minor", envInt("CURRENCY_MINOR_UNITS", 2), "currency minor units used when printing amounts")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}
	tableID, err := strconv.ParseInt(strings.TrimSpace(*tableRaw), 10, 64)
	if err != nil || tableID <= 0 {
		fmt.Fprintln(os.Stderr, "mesa: -table (or MESA_TABLE) must be a positive table id")
		os.Exit(2)
	}

	if *minor < 0 || *minor > 8 {
		fmt.Fprintln(os.Stderr, "mesa: -minor (or CURRENCY_MINOR_UNITS) must be between 0 and 8")
		os.Exit(2)
	}

	session, err := cart.OpenSession(cart.FileStore{Dir: *dir}, cart.StorageKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mesa: load cart:", err)
		os.Exit(1)
	}

	a := &app{
		api:        newAPIClient(*apiURL, tableID, *token),
		session:    session,
		minorUnits: int32(*minor),
		currency:   strings.ToUpper(*currency),
		out:        os.Stdout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.run(ctx, fs.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "mesa:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// envInt reads an integer setting, keeping fallback when it is unset or not
// a number.
func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(envOr(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func defaultCartDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".mesa"
	}
	return filepath.Join(base, "mesa")
}

func (a *app) run(ctx context.Context, args []string) error {
	switch args[0] {
	case "menu":
		return a.menu(ctx)
	case "add":
		if len(args) < 2 {
			return errors.New("add needs an item id")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid item id %q", args[1])
		}
		return a.add(ctx, id)
	case "show":
		a.show()
		return nil
	case "clear":
		if err := a.session.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "cart cleared")
		return nil
	case "submit":
		return a.submit(ctx)
	case "pay":
		return a.pay(ctx)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *app) money(v cart.Line) string {
	return a.currency + " " + cart.Format(v.UnitPrice, a.minorUnits)
}

func (a *app) menu(ctx context.Context) error {
	res, err := a.api.Menu(ctx)
	if err != nil {
		return explain(err)
	}
	fmt.Fprintf(a.out, "Table %d\n", res.Table.Number)
	if len(res.Catalog.Recommended) > 0 {
		fmt.Fprintln(a.out, "\nRecommended")
		for _, it := range res.Catalog.Recommended {
			fmt.Fprintf(a.out, "  %4d  %-32s %s\n", it.ID, it.Name, a.currency+" "+cart.Format(it.Price, a.minorUnits))
		}
	}
	for _, section := range res.Catalog.Sections {
		fmt.Fprintf(a.out, "\n%s\n", section.Category.Name)
		for _, it := range section.Items {
			fmt.Fprintf(a.out, "  %4d  %-32s %s\n", it.ID, it.Name, a.currency+" "+cart.Format(it.Price, a.minorUnits))
		}
	}
	return nil
}

func (a *app) add(ctx context.Context, itemID int64) error {
	res, err := a.api.Menu(ctx)
	if err != nil {
		return explain(err)
	}
	item, ok := findItem(res.Catalog, itemID)
	if !ok {
		return fmt.Errorf("item %d is not on the menu", itemID)
	}
	if err := a.session.Add(item); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "added %s\n", item.Name)
	a.show()
	return nil
}

func findItem(c menu.Catalog, id int64) (menu.Item, bool) {
	for _, section := range c.Sections {
		for _, it := range section.Items {
			if it.ID == id {
				return it, true
			}
		}
	}
	for _, it := range c.Recommended {
		if it.ID == id {
			return it, true
		}
	}
	return menu.Item{}, false
}

func (a *app) show() {
	c := a.session.Cart()
	if c.IsEmpty() {
		fmt.Fprintln(a.out, "cart is empty")
		return
	}
	for _, l := range c.Lines {
		fmt.Fprintf(a.out, "  %2dx %-32s %s\n", l.Quantity, l.Name, a.money(l))
	}
	fmt.Fprintf(a.out, "total: %s %s\n", a.currency, cart.Format(cart.Total(c), a.minorUnits))
}

func (a *app) submit(ctx context.Context) error {
	order, err := a.api.Submit(ctx, a.session.Cart())
	if err != nil {
		return explain(err)
	}
	if err := a.session.Clear(); err != nil {
		return fmt.Errorf("order %s sent but the local cart could not be cleared: %w", order.ID, err)
	}
	fmt.Fprintf(a.out, "order %s sent (%s %s)\n", order.ID, a.currency, cart.Format(order.Total, a.minorUnits))
	return nil
}

func (a *app) pay(ctx context.Context) error {
	id, err := a.api.Checkout(ctx, a.session.Cart())
	if err != nil {
		return explain(err)
	}
	fmt.Fprintf(a.out, "payment session %s\n", id)
	return nil
}

// explain turns API errors into the message a diner should see.
func explain(err error) error {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Reason == apperror.ReasonTableNotOpen:
		return errors.New("this table is not open for orders yet, please ask a waiter")
	case apiErr.Reason == apperror.ReasonEmptyCart:
		return errors.New("the cart is empty")
	case apiErr.Code == string(apperror.ErrLookupNotFound):
		return errors.New("table not found, please scan the QR code again")
	case apiErr.Code == string(apperror.ErrPaymentSessionError):
		return errors.New("could not start the payment, please try again")
	}
	return err
}
