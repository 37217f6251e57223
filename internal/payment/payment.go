package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/apperror"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/cart"

	"github.com/shopspring/decimal"
)

type PreferenceItem struct {
	Title      string
	UnitPrice  decimal.Decimal
	Quantity   int
	CurrencyID string
}

type BackURLs struct {
	Success string
	Failure string
	Pending string
}

type Preference struct {
	Items             []PreferenceItem
	BackURLs          BackURLs
	AutoReturn        string
	ExternalReference string
}

// Provider creates a hosted checkout session and returns its identifier.
type Provider interface {
	CreatePreference(ctx context.Context, p Preference) (string, error)
}

// Bridge turns cart lines into a provider checkout session. It never touches
// orders or tables and never retries.
type Bridge struct {
	Provider   Provider
	BaseURL    string
	Currency   string
	MinorUnits int32
}

var errNoLines = errors.New("no items to pay")

func (b *Bridge) CreateSession(ctx context.Context, lines []cart.Line, tableID int64) (string, error) {
	if b == nil || b.Provider == nil {
		return "", apperror.PaymentSession("Payment provider is not configured", nil)
	}
	pref, err := b.BuildPreference(lines, tableID)
	if err != nil {
		return "", apperror.PaymentSession("Failed to create payment preference", err)
	}

	id, err := b.Provider.CreatePreference(ctx, pref)
	if err != nil {
		return "", apperror.PaymentSession("Failed to create payment preference", err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperror.PaymentSession("Failed to create payment preference", errors.New("empty preference id"))
	}
	return id, nil
}

// BuildPreference maps each line to one provider item and points the return
// URLs back at the table page.
func (b *Bridge) BuildPreference(lines []cart.Line, tableID int64) (Preference, error) {
	if len(lines) == 0 {
		return Preference{}, errNoLines
	}

	items := make([]PreferenceItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return Preference{}, fmt.Errorf("invalid quantity for item %d", line.ItemID)
		}
		if line.UnitPrice.IsNegative() {
			return Preference{}, fmt.Errorf("invalid price for item %d", line.ItemID)
		}
		items = append(items, PreferenceItem{
			Title:      line.Name,
			UnitPrice:  cart.RoundMinor(line.UnitPrice, b.MinorUnits),
			Quantity:   line.Quantity,
			CurrencyID: b.Currency,
		})
	}

	ref := strconv.FormatInt(tableID, 10)
	return Preference{
		Items:             items,
		BackURLs:          TableReturnURLs(b.BaseURL, ref),
		AutoReturn:        "approved",
		ExternalReference: ref,
	}, nil
}

func TableReturnURLs(baseURL, tableRef string) BackURLs {
	page := strings.TrimRight(baseURL, "/") + "/mesa/" + tableRef + "?status="
	return BackURLs{
		Success: page + "success",
		Failure: page + "failure",
		Pending: page + "pending",
	}
}
