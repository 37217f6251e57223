package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/apperror"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/cart"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/tables"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPreparing Status = "PREPARING"
	StatusDelivered Status = "DELIVERED"
)

var Statuses = []Status{StatusPending, StatusPreparing, StatusDelivered}

func ParseStatus(value string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range Statuses {
		if s == known {
			return s, true
		}
	}
	return "", false
}

type Order struct {
	ID          uuid.UUID       `json:"id"`
	TableID     int64           `json:"tableId"`
	TableNumber *int            `json:"tableNumber,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	Items       []cart.Line     `json:"items"`
	Total       decimal.Decimal `json:"total"`
	Status      Status          `json:"status"`
}

// Submit builds a new PENDING order for table from c. The total is computed
// once here and rounded to the currency's minor unit.
func Submit(table *tables.Table, c cart.Cart, now time.Time, minorUnits int32) (Order, error) {
	if c.IsEmpty() {
		return Order{}, apperror.OrderRejected(apperror.ReasonEmptyCart, "Cart is empty")
	}
	if !tables.IsOrderingAllowed(table) {
		return Order{}, apperror.OrderRejected(apperror.ReasonTableNotOpen, "Table is not open for orders. Please ask a waiter to enable it.")
	}
	return Order{
		ID:        uuid.New(),
		TableID:   table.ID,
		CreatedAt: now,
		Items:     cart.Snapshot(c),
		Total:     cart.RoundMinor(cart.Total(c), minorUnits),
		Status:    StatusPending,
	}, nil
}

// Advance sets the order status. Any target is accepted; there is no
// transition table.
func Advance(o Order, s Status) Order {
	o.Status = s
	return o
}

// ErrNotFound is returned by a Store for an unknown order id.
var ErrNotFound = errors.New("order not found")

type Store interface {
	InsertOrder(ctx context.Context, o Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status Status) error
}

// HistoryEntry is one recorded status of an order.
type HistoryEntry struct {
	OrderID        uuid.UUID `json:"orderId"`
	Status         Status    `json:"status"`
	PreviousStatus *Status   `json:"previousStatus,omitempty"`
	RecordedAt     time.Time `json:"recordedAt"`
	Source         string    `json:"source"`
}
