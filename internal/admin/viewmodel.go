package admin

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/orders"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/tables"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Source interface {
	ListTables(ctx context.Context) ([]tables.Table, error)
	ListOrders(ctx context.Context) ([]orders.Order, error)
}

type Collection string

const (
	CollectionTables Collection = "tables"
	CollectionOrders Collection = "orders"
)

// Change is a change notification. Only the collection is used; the payload
// is never diffed.
type Change struct {
	Collection Collection
	Op         string
}

type StatusFilter string

const All StatusFilter = "ALL"

func ParseFilter(value string) (StatusFilter, bool) {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" || v == string(All) {
		return All, true
	}
	if s, ok := orders.ParseStatus(v); ok {
		return StatusFilter(s), true
	}
	return "", false
}

type Snapshot struct {
	Tables []tables.Table `json:"tables"`
	Orders []orders.Order `json:"orders"`
	Filter StatusFilter   `json:"filter"`
	Counts map[string]int `json:"counts"`
}

// ViewModel is the staff dashboard state for one dashboard context. Every
// change notification reloads the affected collection in full.
type ViewModel struct {
	source Source
	logger *zap.Logger

	handleMu sync.Mutex

	mu           sync.RWMutex
	tables       []tables.Table
	orders       []orders.Order
	ordersLoaded bool
	seen         map[uuid.UUID]struct{}
	newPending   []orders.Order
}

func New(source Source, logger *zap.Logger) *ViewModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewModel{
		source: source,
		logger: logger,
		tables: []tables.Table{},
		orders: []orders.Order{},
		seen:   make(map[uuid.UUID]struct{}),
	}
}

// Refresh reloads both collections.
func (vm *ViewModel) Refresh(ctx context.Context) {
	vm.handleMu.Lock()
	defer vm.handleMu.Unlock()
	vm.reloadTables(ctx)
	vm.reloadOrders(ctx)
}

// HandleChange reloads the collection named by c. Calls are serialized per
// view model; duplicates and reordering are harmless.
func (vm *ViewModel) HandleChange(ctx context.Context, c Change) {
	vm.handleMu.Lock()
	defer vm.handleMu.Unlock()
	switch c.Collection {
	case CollectionTables:
		vm.reloadTables(ctx)
	case CollectionOrders:
		vm.reloadOrders(ctx)
	default:
		vm.reloadTables(ctx)
		vm.reloadOrders(ctx)
	}
}

func (vm *ViewModel) reloadTables(ctx context.Context) {
	list, err := vm.source.ListTables(ctx)
	if err != nil {
		vm.logger.Warn("admin tables fetch failed", zap.Error(err))
		list = nil
	}
	sorted := SortTables(list)

	vm.mu.Lock()
	vm.tables = sorted
	vm.mu.Unlock()
}

func (vm *ViewModel) reloadOrders(ctx context.Context) {
	list, err := vm.source.ListOrders(ctx)
	if err != nil {
		vm.logger.Warn("admin orders fetch failed", zap.Error(err))
		vm.mu.Lock()
		vm.orders = []orders.Order{}
		vm.mu.Unlock()
		return
	}
	sorted := SortOrders(list)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.ordersLoaded {
		for _, o := range sorted {
			if _, ok := vm.seen[o.ID]; ok {
				continue
			}
			if o.Status == orders.StatusPending {
				vm.newPending = append(vm.newPending, o)
			}
		}
	}
	seen := make(map[uuid.UUID]struct{}, len(sorted))
	for _, o := range sorted {
		seen[o.ID] = struct{}{}
	}
	vm.seen = seen
	vm.orders = sorted
	vm.ordersLoaded = true
}

func (vm *ViewModel) Tables() []tables.Table {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]tables.Table, len(vm.tables))
	copy(out, vm.tables)
	return out
}

func (vm *ViewModel) Orders() []orders.Order {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]orders.Order, len(vm.orders))
	copy(out, vm.orders)
	return out
}

// FilterByStatus is recomputed on every call.
func (vm *ViewModel) FilterByStatus(f StatusFilter) []orders.Order {
	return FilterByStatus(vm.Orders(), f)
}

// NewPending drains the PENDING orders that appeared since the previous
// orders reload. The initial load never reports any.
func (vm *ViewModel) NewPending() []orders.Order {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	out := vm.newPending
	vm.newPending = nil
	return out
}

// Snapshot is the dashboard payload. limit caps the order rows for display
// only; 0 means no cap.
func (vm *ViewModel) Snapshot(f StatusFilter, limit int) Snapshot {
	all := vm.Orders()
	counts := map[string]int{string(All): len(all)}
	for _, s := range orders.Statuses {
		counts[string(s)] = 0
	}
	for _, o := range all {
		counts[string(o.Status)]++
	}
	return Snapshot{
		Tables: vm.Tables(),
		Orders: Limit(FilterByStatus(all, f), limit),
		Filter: f,
		Counts: counts,
	}
}

func FilterByStatus(list []orders.Order, f StatusFilter) []orders.Order {
	out := make([]orders.Order, 0, len(list))
	for _, o := range list {
		if f == All || f == "" || string(o.Status) == string(f) {
			out = append(out, o)
		}
	}
	return out
}

func Limit(list []orders.Order, n int) []orders.Order {
	if n <= 0 || len(list) <= n {
		return list
	}
	return list[:n]
}

// SortTables orders by table number ascending.
func SortTables(list []tables.Table) []tables.Table {
	out := make([]tables.Table, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Number == out[j].Number {
			return out[i].ID < out[j].ID
		}
		return out[i].Number < out[j].Number
	})
	return out
}

// SortOrders orders by creation time, newest first.
func SortOrders(list []orders.Order) []orders.Order {
	out := make([]orders.Order, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
