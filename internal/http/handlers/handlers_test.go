package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/auth"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/cart"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/config"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/menu"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/orders"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/payment"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/storage"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/store"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/tables"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2026, 10, 16, 21, 30, 0, 0, time.UTC)

type memStore struct {
	mu         sync.Mutex
	tables     map[int64]tables.Table
	orders     map[uuid.UUID]orders.Order
	items      map[int64]menu.Item
	categories []menu.Category
	history    map[uuid.UUID][]orders.HistoryEntry
}

func newMemStore() *memStore {
	cat := int64(1)
	return &memStore{
		tables: map[int64]tables.Table{
			1: {ID: 1, Number: 4, State: tables.StateOccupied},
			2: {ID: 2, Number: 2, State: tables.StateFree},
		},
		orders: map[uuid.UUID]orders.Order{},
		items: map[int64]menu.Item{
			10: {ID: 10, Name: "Empanada", Price: decimal.RequireFromString("850.50"), CategoryID: &cat, Available: true, Recommended: true},
			11: {ID: 11, Name: "Flan", Price: decimal.RequireFromString("1200"), CategoryID: &cat, Available: true},
		},
		categories: []menu.Category{{ID: 1, Name: "Entradas", DisplayOrder: 1}},
		history:    map[uuid.UUID][]orders.HistoryEntry{},
	}
}

func (m *memStore) GetTable(_ context.Context, id int64) (tables.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[id]
	if !ok {
		return tables.Table{}, tables.ErrNotFound
	}
	return t, nil
}

func (m *memStore) UpdateTableState(_ context.Context, id int64, state tables.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[id]
	if !ok {
		return tables.ErrNotFound
	}
	t.State = state
	m.tables[id] = t
	return nil
}

func (m *memStore) ListTables(context.Context) ([]tables.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]tables.Table, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) InsertOrder(_ context.Context, o orders.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	return nil
}

func (m *memStore) GetOrder(_ context.Context, id uuid.UUID) (orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	return o, nil
}

func (m *memStore) UpdateOrderStatus(_ context.Context, id uuid.UUID, status orders.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return orders.ErrNotFound
	}
	o.Status = status
	m.orders[id] = o
	return nil
}

func (m *memStore) ListOrders(context.Context) ([]orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]orders.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *memStore) ListCategories(context.Context) ([]menu.Category, error) {
	return m.categories, nil
}

func (m *memStore) ListAvailableItems(context.Context) ([]menu.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]menu.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	return out, nil
}

func (m *memStore) ListStatusHistory(_ context.Context, id uuid.UUID) ([]orders.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[id], nil
}

func (m *memStore) GetMenuItem(_ context.Context, id int64) (menu.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return menu.Item{}, store.ErrMenuItemNotFound
	}
	return it, nil
}

func (m *memStore) UpdateMenuItemImage(_ context.Context, id int64, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return store.ErrMenuItemNotFound
	}
	it.ImageURL = &imageURL
	m.items[id] = it
	return nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

type fakeImages struct {
	puts    map[int64]storage.MenuImageURLs
	deleted []string
}

func (f *fakeImages) PutMenuImage(_ context.Context, itemID int64, full, thumb []byte, at time.Time) (storage.MenuImageURLs, error) {
	if len(full) == 0 || len(thumb) == 0 {
		return storage.MenuImageURLs{}, errors.New("empty variant")
	}
	if f.puts == nil {
		f.puts = map[int64]storage.MenuImageURLs{}
	}
	fullKey, thumbKey := storage.MenuImageKeys(itemID, at)
	urls := storage.MenuImageURLs{Full: "https://cdn.example.com/" + fullKey, Thumbnail: "https://cdn.example.com/" + thumbKey}
	f.puts[itemID] = urls
	return urls, nil
}

func (f *fakeImages) DeleteMenuImage(_ context.Context, fullURL string) error {
	f.deleted = append(f.deleted, fullURL)
	return nil
}

type stubProvider struct {
	id  string
	err error
}

func (s stubProvider) CreatePreference(context.Context, payment.Preference) (string, error) {
	return s.id, s.err
}

func newTestHandler(m *memStore) (*Handler, *recordingPublisher) {
	pub := &recordingPublisher{}
	guard := &tables.Guard{Repo: m}
	cfg := config.Config{
		Env:                "test",
		JWTSecret:          "test-secret",
		JWTExpirySeconds:   3600,
		PublicBaseURL:      "https://mesa.example.com",
		Currency:           "ARS",
		CurrencyMinorUnits: 2,
		Timezone:           "America/Argentina/Buenos_Aires",
		MaxFileSizeBytes:   2 * 1024 * 1024,
	}
	h := &Handler{
		Config:    cfg,
		Tables:    guard,
		Menu:      m,
		Orders:    &orders.Service{Tables: guard, Store: m, Events: pub, MinorUnits: 2, Now: func() time.Time { return fixedNow }},
		Dashboard: m,
		History:   m,
		MenuItems: m,
		Payments:  &payment.Bridge{Provider: stubProvider{id: "pref-1"}, BaseURL: cfg.PublicBaseURL, Currency: "ARS", MinorUnits: 2},
		Events:    pub,
		Now:       func() time.Time { return fixedNow },
	}
	return h, pub
}

func withParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details map[string]any  `json:"details"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestPublicTable(t *testing.T) {
	cases := []struct {
		name   string
		id     string
		status int
		code   string
	}{
		{name: "occupied", id: "1", status: http.StatusOK},
		{name: "free", id: "2", status: http.StatusForbidden, code: "ORDER_REJECTED"},
		{name: "unknown", id: "99", status: http.StatusNotFound, code: "LOOKUP_NOT_FOUND"},
		{name: "malformed", id: "abc", status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestHandler(newMemStore())
			req := withParams(httptest.NewRequest(http.MethodGet, "/api/public/tables/"+tc.id, nil), "tableId", tc.id)
			rec := httptest.NewRecorder()
			h.PublicTable(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d (%s)", tc.status, rec.Code, rec.Body.String())
			}
			env := decodeEnvelope(t, rec)
			if env.Error != tc.code {
				t.Fatalf("expected code %q, got %q", tc.code, env.Error)
			}
			if tc.name == "free" && env.Details["reason"] != "TABLE_NOT_OPEN" {
				t.Fatalf("expected TABLE_NOT_OPEN reason, got %+v", env.Details)
			}
		})
	}
}

func TestPublicTableRequiresSignedLink(t *testing.T) {
	h, _ := newTestHandler(newMemStore())
	h.Config.TableLinkSecret = "qr-secret"

	req := withParams(httptest.NewRequest(http.MethodGet, "/api/public/tables/1", nil), "tableId", "1")
	rec := httptest.NewRecorder()
	h.PublicTable(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without token, got %d", rec.Code)
	}

	token := utils.CreateTableToken("qr-secret", 1)
	req = withParams(httptest.NewRequest(http.MethodGet, "/api/public/tables/1?t="+token, nil), "tableId", "1")
	rec = httptest.NewRecorder()
	h.PublicTable(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
}

func TestPublicTableMenu(t *testing.T) {
	h, _ := newTestHandler(newMemStore())
	req := withParams(httptest.NewRequest(http.MethodGet, "/api/public/tables/1/menu", nil), "tableId", "1")
	rec := httptest.NewRecorder()
	h.PublicTableMenu(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload TableMenuResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &payload); err != nil {
		t.Fatalf("decode menu: %v", err)
	}
	if len(payload.Catalog.Sections) != 1 || len(payload.Catalog.Sections[0].Items) != 2 {
		t.Fatalf("unexpected catalog %+v", payload.Catalog)
	}
	if len(payload.Catalog.Recommended) != 1 || payload.Catalog.Recommended[0].ID != 10 {
		t.Fatalf("expected Empanada recommended, got %+v", payload.Catalog.Recommended)
	}

	req = withParams(httptest.NewRequest(http.MethodGet, "/api/public/tables/2/menu", nil), "tableId", "2")
	rec = httptest.NewRecorder()
	h.PublicTableMenu(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for closed table, got %d", rec.Code)
	}
}

func cartBody(t *testing.T, lines []cart.Line) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(CartRequest{Items: lines})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(raw)
}

func TestPublicCreateOrder(t *testing.T) {
	lines := []cart.Line{
		{ItemID: 10, Name: "Empanada", UnitPrice: decimal.RequireFromString("850.50"), Quantity: 3},
		{ItemID: 11, Name: "Flan", UnitPrice: decimal.RequireFromString("1200"), Quantity: 1},
	}

	t.Run("occupied table", func(t *testing.T) {
		m := newMemStore()
		h, pub := newTestHandler(m)
		req := withParams(httptest.NewRequest(http.MethodPost, "/api/public/tables/1/orders", cartBody(t, lines)), "tableId", "1")
		rec := httptest.NewRecorder()
		h.PublicCreateOrder(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
		}
		var created orders.Order
		if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &created); err != nil {
			t.Fatalf("decode order: %v", err)
		}
		if created.Status != orders.StatusPending || !created.Total.Equal(decimal.RequireFromString("3751.5")) {
			t.Fatalf("unexpected order %+v", created)
		}
		if len(m.orders) != 1 {
			t.Fatalf("expected 1 stored order, got %d", len(m.orders))
		}
		if len(pub.keys) != 1 || pub.keys[0] != orders.EventOrderCreated {
			t.Fatalf("expected order.created event, got %v", pub.keys)
		}
	})

	rejected := []struct {
		name    string
		tableID string
		lines   []cart.Line
		status  int
		reason  string
	}{
		{name: "free table", tableID: "2", lines: lines, status: http.StatusConflict, reason: "TABLE_NOT_OPEN"},
		{name: "unknown table", tableID: "42", lines: lines, status: http.StatusConflict, reason: "TABLE_NOT_OPEN"},
		{name: "empty cart", tableID: "1", lines: nil, status: http.StatusConflict, reason: "EMPTY_CART"},
		{name: "bad quantity", tableID: "1", lines: []cart.Line{{ItemID: 10, Quantity: 0}}, status: http.StatusBadRequest},
		{name: "item not on menu", tableID: "1", lines: []cart.Line{{ItemID: 99, Name: "Gratis", UnitPrice: decimal.Zero, Quantity: 1}}, status: http.StatusBadRequest},
		{name: "trailing garbage in table id", tableID: "1abc", lines: lines, status: http.StatusBadRequest},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			m := newMemStore()
			h, _ := newTestHandler(m)
			req := withParams(httptest.NewRequest(http.MethodPost, "/", cartBody(t, tc.lines)), "tableId", tc.tableID)
			rec := httptest.NewRecorder()
			h.PublicCreateOrder(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, rec.Code, rec.Body.String())
			}
			env := decodeEnvelope(t, rec)
			if tc.reason != "" && env.Details["reason"] != tc.reason {
				t.Fatalf("expected reason %s, got %+v", tc.reason, env.Details)
			}
			if len(m.orders) != 0 {
				t.Fatalf("expected no stored order")
			}
		})
	}
}

func TestPublicCreateOrderRejectsUnavailableItem(t *testing.T) {
	m := newMemStore()
	item := m.items[11]
	item.Available = false
	m.items[11] = item
	h, _ := newTestHandler(m)

	lines := []cart.Line{{ItemID: 11, Name: "Flan", UnitPrice: decimal.RequireFromString("1200"), Quantity: 1}}
	req := withParams(httptest.NewRequest(http.MethodPost, "/", cartBody(t, lines)), "tableId", "1")
	rec := httptest.NewRecorder()
	h.PublicCreateOrder(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(m.orders) != 0 {
		t.Fatalf("expected no stored order")
	}
}

func TestReadPathInt64(t *testing.T) {
	cases := []struct {
		value string
		want  int64
		ok    bool
	}{
		{value: "5", want: 5, ok: true},
		{value: "5abc", ok: false},
		{value: "5.9", ok: false},
		{value: "0x10", ok: false},
		{value: "0", ok: false},
		{value: "-3", ok: false},
		{value: "", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			req := withParams(httptest.NewRequest(http.MethodGet, "/", nil), "tableId", tc.value)
			got, err := readPathInt64(req, "tableId")
			if (err == nil) != tc.ok || got != tc.want {
				t.Fatalf("expected %d/%v, got %d/%v", tc.want, tc.ok, got, err)
			}
		})
	}
}

func TestCheckout(t *testing.T) {
	body := `{"tableId":1,"items":[{"itemId":10,"name":"Empanada","unitPrice":"850.5","quantity":2}]}`

	t.Run("method not allowed", func(t *testing.T) {
		h, _ := newTestHandler(newMemStore())
		rec := httptest.NewRecorder()
		h.Checkout(rec, httptest.NewRequest(http.MethodGet, "/api/checkout", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
		if strings.TrimSpace(rec.Body.String()) != `{"message":"Method not allowed"}` {
			t.Fatalf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("success", func(t *testing.T) {
		h, _ := newTestHandler(newMemStore())
		rec := httptest.NewRecorder()
		h.Checkout(rec, httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body)))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if strings.TrimSpace(rec.Body.String()) != `{"id":"pref-1"}` {
			t.Fatalf("unexpected body %s", rec.Body.String())
		}
	})

	failures := []struct {
		name     string
		body     string
		provider payment.Provider
	}{
		{name: "provider error", body: body, provider: stubProvider{err: errors.New("boom")}},
		{name: "empty items", body: `{"tableId":1,"items":[]}`, provider: stubProvider{id: "x"}},
		{name: "bad json", body: `{`, provider: stubProvider{id: "x"}},
		{name: "no table", body: `{"items":[{"itemId":1,"name":"a","unitPrice":"1","quantity":1}]}`, provider: stubProvider{id: "x"}},
		{name: "item not on menu", body: `{"tableId":1,"items":[{"itemId":99,"name":"Gratis","unitPrice":"0","quantity":1}]}`, provider: stubProvider{id: "x"}},
	}
	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestHandler(newMemStore())
			h.Payments.Provider = tc.provider
			rec := httptest.NewRecorder()
			h.Checkout(rec, httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(tc.body)))
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", rec.Code)
			}
			if env := decodeEnvelope(t, rec); env.Error != "PAYMENT_SESSION_ERROR" {
				t.Fatalf("expected PAYMENT_SESSION_ERROR, got %s", env.Error)
			}
		})
	}
}

func TestAdminLogin(t *testing.T) {
	hash, err := auth.HashPassword("milanesa")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h, _ := newTestHandler(newMemStore())
	h.Config.StaffPasswordHash = hash

	rec := httptest.NewRecorder()
	h.AdminLogin(rec, httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"username":"cocina","password":"milanesa"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var login LoginResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &login); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !login.ExpiresAt.Equal(fixedNow.Add(time.Hour)) {
		t.Fatalf("expected expiry one hour after login, got %s", login.ExpiresAt)
	}
	claims, err := auth.VerifyAccessTokenAt(login.AccessToken, "test-secret", fixedNow)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.Role != auth.RoleStaff || claims.Subject != "cocina" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	rec = httptest.NewRecorder()
	h.AdminLogin(rec, httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":"wrong"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAdminToggleTable(t *testing.T) {
	m := newMemStore()
	h, pub := newTestHandler(m)

	req := withParams(httptest.NewRequest(http.MethodPost, "/", nil), "tableId", "2")
	rec := httptest.NewRecorder()
	h.AdminToggleTable(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if m.tables[2].State != tables.StateOccupied {
		t.Fatalf("expected table 2 OCCUPIED, got %s", m.tables[2].State)
	}
	if len(pub.keys) != 1 || pub.keys[0] != tables.EventTableStateChanged {
		t.Fatalf("expected table event, got %v", pub.keys)
	}

	req = withParams(httptest.NewRequest(http.MethodPost, "/", nil), "tableId", "77")
	rec = httptest.NewRecorder()
	h.AdminToggleTable(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAdminTableLink(t *testing.T) {
	h, _ := newTestHandler(newMemStore())
	h.Config.TableLinkSecret = "qr-secret"

	req := withParams(httptest.NewRequest(http.MethodGet, "/", nil), "tableId", "1")
	rec := httptest.NewRecorder()
	h.AdminTableLink(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var link TableLinkResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &link); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := "https://mesa.example.com/mesa/1?t=" + utils.CreateTableToken("qr-secret", 1)
	if link.URL != want || link.Number != 4 {
		t.Fatalf("expected %s, got %+v", want, link)
	}
}

func seedOrder(m *memStore, minutes int, status orders.Status) orders.Order {
	o := orders.Order{
		ID:        uuid.New(),
		TableID:   1,
		CreatedAt: fixedNow.Add(time.Duration(minutes) * time.Minute),
		Items:     []cart.Line{{ItemID: 10, Name: "Empanada", UnitPrice: decimal.RequireFromString("850.50"), Quantity: 2}},
		Total:     decimal.RequireFromString("1701"),
		Status:    status,
	}
	m.orders[o.ID] = o
	return o
}

func TestAdminListOrders(t *testing.T) {
	m := newMemStore()
	for i := 0; i < 5; i++ {
		seedOrder(m, i, orders.StatusPending)
	}
	delivered := seedOrder(m, 10, orders.StatusDelivered)
	h, _ := newTestHandler(m)
	h.Config.AdminOrdersDisplayLimit = 3

	cases := []struct {
		query  string
		status int
		count  int
	}{
		{query: "", status: http.StatusOK, count: 3},
		{query: "?status=DELIVERED", status: http.StatusOK, count: 1},
		{query: "?status=preparing", status: http.StatusOK, count: 0},
		{query: "?status=LOST", status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.AdminListOrders(rec, httptest.NewRequest(http.MethodGet, "/api/admin/orders"+tc.query, nil))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if tc.status != http.StatusOK {
				return
			}
			var list []orders.Order
			if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &list); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(list) != tc.count {
				t.Fatalf("expected %d orders, got %d", tc.count, len(list))
			}
			if tc.query == "" && list[0].ID != delivered.ID {
				t.Fatalf("expected newest order first")
			}
		})
	}
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	m := newMemStore()
	existing := seedOrder(m, 0, orders.StatusPending)
	h, pub := newTestHandler(m)

	cases := []struct {
		name   string
		id     string
		body   string
		status int
	}{
		{name: "advance", id: existing.ID.String(), body: `{"status":"PREPARING"}`, status: http.StatusOK},
		{name: "backwards is accepted", id: existing.ID.String(), body: `{"status":"PENDING"}`, status: http.StatusOK},
		{name: "unknown status", id: existing.ID.String(), body: `{"status":"COOKED"}`, status: http.StatusBadRequest},
		{name: "unknown order", id: uuid.NewString(), body: `{"status":"DELIVERED"}`, status: http.StatusNotFound},
		{name: "bad id", id: "nope", body: `{"status":"DELIVERED"}`, status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := withParams(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tc.body)), "orderId", tc.id)
			rec := httptest.NewRecorder()
			h.AdminUpdateOrderStatus(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
	if m.orders[existing.ID].Status != orders.StatusPending {
		t.Fatalf("expected last write PENDING, got %s", m.orders[existing.ID].Status)
	}
	if len(pub.keys) != 2 {
		t.Fatalf("expected 2 status events, got %v", pub.keys)
	}
}

func TestAdminOrderHistory(t *testing.T) {
	m := newMemStore()
	o := seedOrder(m, 0, orders.StatusPreparing)
	prev := orders.StatusPending
	m.history[o.ID] = []orders.HistoryEntry{
		{OrderID: o.ID, Status: orders.StatusPending, RecordedAt: fixedNow, Source: "order.created"},
		{OrderID: o.ID, Status: orders.StatusPreparing, PreviousStatus: &prev, RecordedAt: fixedNow.Add(time.Minute), Source: "order.status.updated"},
	}
	h, _ := newTestHandler(m)

	req := withParams(httptest.NewRequest(http.MethodGet, "/", nil), "orderId", o.ID.String())
	rec := httptest.NewRecorder()
	h.AdminOrderHistory(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var entries []orders.HistoryEntry
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 || entries[1].PreviousStatus == nil || *entries[1].PreviousStatus != orders.StatusPending {
		t.Fatalf("unexpected history %+v", entries)
	}
}

func TestAdminOrderReceiptPDF(t *testing.T) {
	m := newMemStore()
	o := seedOrder(m, 0, orders.StatusDelivered)
	h, _ := newTestHandler(m)

	req := withParams(httptest.NewRequest(http.MethodGet, "/", nil), "orderId", o.ID.String())
	rec := httptest.NewRecorder()
	h.AdminOrderReceiptPDF(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected pdf body")
	}

	req = withParams(httptest.NewRequest(http.MethodGet, "/", nil), "orderId", uuid.NewString())
	rec = httptest.NewRecorder()
	h.AdminOrderReceiptPDF(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestBuildReceiptData(t *testing.T) {
	h, _ := newTestHandler(newMemStore())
	number := 4
	data := h.buildReceiptData(orders.Order{
		ID:          uuid.New(),
		TableID:     1,
		TableNumber: &number,
		CreatedAt:   fixedNow,
		Items:       []cart.Line{{ItemID: 10, Name: "Empanada", UnitPrice: decimal.RequireFromString("850.5"), Quantity: 3}},
		Total:       decimal.RequireFromString("2551.5"),
		Status:      orders.StatusPending,
	})
	if data.TableLabel != "Table 4" {
		t.Fatalf("expected Table 4, got %s", data.TableLabel)
	}
	if data.Lines[0].Subtotal != "ARS 2551.50" || data.TotalAmount != "ARS 2551.50" {
		t.Fatalf("unexpected amounts %+v", data)
	}
	if data.PlacedAt != "2026-10-16 18:30" {
		t.Fatalf("expected local time, got %s", data.PlacedAt)
	}
}

func pngUpload(t *testing.T, w, hgt int) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, hgt))
	for x := 0; x < w; x++ {
		for y := 0; y < hgt; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var raw bytes.Buffer
	if err := png.Encode(&raw, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "plato.png")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write(raw.Bytes())
	_ = mw.Close()
	return &body, mw.FormDataContentType()
}

func TestAdminUploadMenuImage(t *testing.T) {
	m := newMemStore()
	previous := "https://cdn.example.com/menu/items/10/1.jpg"
	it := m.items[10]
	it.ImageURL = &previous
	m.items[10] = it

	h, _ := newTestHandler(m)
	images := &fakeImages{}
	h.Images = images

	body, ct := pngUpload(t, 64, 48)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", ct)
	req = withParams(req, "itemId", "10")
	rec := httptest.NewRecorder()
	h.AdminUploadMenuImage(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var res MenuImageResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Width != 64 || res.Height != 48 || len(res.Warnings) == 0 {
		t.Fatalf("unexpected response %+v", res)
	}
	if images.puts[10] != (storage.MenuImageURLs{Full: res.ImageURL, Thumbnail: res.ThumbnailURL}) {
		t.Fatalf("unexpected stored urls %+v", images.puts)
	}
	if got := m.items[10].ImageURL; got == nil || *got != res.ImageURL {
		t.Fatalf("expected item image updated, got %v", got)
	}
	if len(images.deleted) != 1 || images.deleted[0] != previous {
		t.Fatalf("expected previous images removed, got %v", images.deleted)
	}
}

func TestAdminUploadMenuImageErrors(t *testing.T) {
	t.Run("storage missing", func(t *testing.T) {
		h, _ := newTestHandler(newMemStore())
		body, ct := pngUpload(t, 8, 8)
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		h.AdminUploadMenuImage(rec, withParams(req, "itemId", "10"))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("file missing", func(t *testing.T) {
		h, _ := newTestHandler(newMemStore())
		h.Images = &fakeImages{}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		rec := httptest.NewRecorder()
		h.AdminUploadMenuImage(rec, withParams(req, "itemId", "10"))
		if env := decodeEnvelope(t, rec); rec.Code != http.StatusBadRequest || env.Error != "FILE_REQUIRED" {
			t.Fatalf("expected FILE_REQUIRED, got %d %s", rec.Code, env.Error)
		}
	})

	t.Run("unknown item", func(t *testing.T) {
		h, _ := newTestHandler(newMemStore())
		h.Images = &fakeImages{}
		body, ct := pngUpload(t, 8, 8)
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		h.AdminUploadMenuImage(rec, withParams(req, "itemId", "404"))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
