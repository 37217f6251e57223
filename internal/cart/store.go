package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/menu"
)

// StorageKey is the fixed name the in-progress cart is kept under.
const StorageKey = "restaurante-cart-storage"

// Store keeps carts for a single client. It is never shared across devices.
type Store interface {
	Load(key string) (Cart, error)
	Save(key string, c Cart) error
}

type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]Cart)}
}

func (s *MemoryStore) Load(key string) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[key]
	if !ok {
		return Cart{Lines: []Line{}}, nil
	}
	return Cart{Lines: Snapshot(c)}, nil
}

func (s *MemoryStore) Save(key string, c Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[key] = Cart{Lines: Snapshot(c)}
	return nil
}

// FileStore writes one JSON document per key under Dir.
type FileStore struct {
	Dir string
}

type persistedCart struct {
	Version int    `json:"version"`
	Items   []Line `json:"items"`
}

func (s FileStore) path(key string) (string, error) {
	name := strings.TrimSpace(key)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid cart key %q", key)
	}
	return filepath.Join(s.Dir, name+".json"), nil
}

func (s FileStore) Load(key string) (Cart, error) {
	p, err := s.path(key)
	if err != nil {
		return Cart{}, err
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Cart{Lines: []Line{}}, nil
		}
		return Cart{}, err
	}
	var doc persistedCart
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Cart{}, fmt.Errorf("decode cart %s: %w", key, err)
	}
	if doc.Items == nil {
		doc.Items = []Line{}
	}
	return Cart{Lines: doc.Items}, nil
}

func (s FileStore) Save(key string, c Cart) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(persistedCart{Version: 1, Items: Snapshot(c)})
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Session is the client-side cart: loaded once on open, saved after every
// mutation.
type Session struct {
	key   string
	store Store
	cart  Cart
}

func OpenSession(store Store, key string) (*Session, error) {
	c, err := store.Load(key)
	if err != nil {
		return nil, err
	}
	return &Session{key: key, store: store, cart: c}, nil
}

func (s *Session) Cart() Cart {
	return Cart{Lines: Snapshot(s.cart)}
}

func (s *Session) Add(item menu.Item) error {
	next := AddItem(s.cart, item)
	if err := s.store.Save(s.key, next); err != nil {
		return err
	}
	s.cart = next
	return nil
}

func (s *Session) Clear() error {
	next := Clear(s.cart)
	if err := s.store.Save(s.key, next); err != nil {
		return err
	}
	s.cart = next
	return nil
}
