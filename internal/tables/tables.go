package tables

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/apperror"
)

type State string

const (
	StateFree     State = "FREE"
	StateOccupied State = "OCCUPIED"
)

type Table struct {
	ID     int64 `json:"id"`
	Number int   `json:"number"`
	State  State `json:"state"`
}

// ErrNotFound is returned by a Repository when the id does not resolve.
var ErrNotFound = errors.New("table not found")

type Repository interface {
	GetTable(ctx context.Context, id int64) (Table, error)
	UpdateTableState(ctx context.Context, id int64, state State) error
}

// IsOrderingAllowed reports whether t may place orders. A nil table (failed
// lookup) is never allowed.
func IsOrderingAllowed(t *Table) bool {
	return t != nil && t.State == StateOccupied
}

// Toggle flips FREE and OCCUPIED. Any other stored value counts as FREE.
func Toggle(t Table) Table {
	if t.State == StateOccupied {
		t.State = StateFree
	} else {
		t.State = StateOccupied
	}
	return t
}

func ParseState(value string) (State, bool) {
	switch State(value) {
	case StateFree, StateOccupied:
		return State(value), true
	default:
		return "", false
	}
}

// Guard evaluates ordering permission against the repository on every call.
type Guard struct {
	Repo Repository
}

// Lookup resolves id. Any repository failure is reported as LOOKUP_NOT_FOUND.
func (g *Guard) Lookup(ctx context.Context, id int64) (*Table, error) {
	t, err := g.Repo.GetTable(ctx, id)
	if err != nil {
		return nil, apperror.LookupNotFound(fmt.Sprintf("Table %d not found", id), err)
	}
	return &t, nil
}

// Check returns the table when it may order; otherwise LOOKUP_NOT_FOUND for
// an unknown id or ORDER_REJECTED for a closed table.
func (g *Guard) Check(ctx context.Context, id int64) (Table, error) {
	t, err := g.Lookup(ctx, id)
	if err != nil {
		return Table{}, err
	}
	if !IsOrderingAllowed(t) {
		return *t, apperror.OrderRejected(apperror.ReasonTableNotOpen, "Table is not open for orders. Please ask a waiter to enable it.")
	}
	return *t, nil
}

// Allowed is the boolean form of Check.
func (g *Guard) Allowed(ctx context.Context, id int64) bool {
	_, err := g.Check(ctx, id)
	return err == nil
}

// Toggle flips the stored state of the table and returns the new value.
func (g *Guard) Toggle(ctx context.Context, id int64) (Table, error) {
	t, err := g.Lookup(ctx, id)
	if err != nil {
		return Table{}, err
	}
	next := Toggle(*t)
	if err := g.Repo.UpdateTableState(ctx, id, next.State); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Table{}, apperror.LookupNotFound(fmt.Sprintf("Table %d not found", id), err)
		}
		return Table{}, err
	}
	return next, nil
}

const EventTableStateChanged = "table.state.changed"

type Event struct {
	Type       string    `json:"type"`
	TableID    int64     `json:"tableId"`
	Number     int       `json:"number"`
	State      State     `json:"state"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewStateChangedEvent(t Table, at time.Time) Event {
	return Event{Type: EventTableStateChanged, TableID: t.ID, Number: t.Number, State: t.State, OccurredAt: at}
}
