// Package cart implements the local persistent shopping cart. The cart is a
// per-device resource: it needs no authentication, survives restarts, and is
// reconciled with the server only at checkout time.
package cart

import (
	"bytes"
	"encoding/json"
	"os"
	"sync"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"movex/internal/domain"
)

// Store is a durable shopping cart holding at most one entry per product id.
// Every mutation persists the full entry list before returning, so reads
// after a write always observe the write even across a process restart.
// A persistence failure is logged, never surfaced: in-memory state stays
// correct for the session.
type Store struct {
	mu     sync.Mutex
	path   string
	items  []domain.CartItem
	logger *zap.Logger
}

// NewStore opens the cart persisted at path. A missing or corrupt file is
// treated as an empty cart, never a fatal error.
func NewStore(path string, logger *zap.Logger) *Store {
	s := &Store{
		path:   path,
		logger: logger,
	}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read cart file, starting with empty cart",
				zap.String("path", s.path),
				zap.Error(err),
			)
		}
		return
	}

	var items []domain.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("Cart file is corrupt, starting with empty cart",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return
	}
	s.items = items
}

// persist writes the full entry list. Callers must hold s.mu.
func (s *Store) persist() {
	data, err := json.Marshal(s.items)
	if err != nil {
		s.logger.Error("Failed to encode cart", zap.Error(err))
		return
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		s.logger.Warn("Failed to persist cart",
			zap.String("path", s.path),
			zap.Error(err),
		)
	}
}

// Add inserts the product with quantity 1, or increments the quantity of the
// existing entry. Availability gating is the caller's responsibility.
func (s *Store) Add(product domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == product.ID {
			s.items[i].Quantity++
			s.persist()
			return
		}
	}

	s.items = append(s.items, domain.CartItem{Product: product, Quantity: 1})
	s.persist()
}

// Remove deletes the entry with the given product id. Removing an absent
// product is a no-op, not an error.
func (s *Store) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persist()
			return
		}
	}
}

// UpdateQuantity sets the quantity of an existing entry. Quantities of zero
// or less are rejected silently; callers gate those through UI validation.
func (s *Store) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == productID {
			s.items[i].Quantity = quantity
			s.persist()
			return
		}
	}
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persist()
}

// Items returns a copy of the cart entries.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.CartItem, len(s.items))
	copy(items, s.items)
	return items
}

// TotalItems returns the sum of quantities across all entries.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice returns the sum of price times quantity across all entries.
func (s *Store) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0.0
	for _, item := range s.items {
		total += item.Subtotal()
	}
	return total
}

// Contains reports whether the cart holds an entry for the product id.
func (s *Store) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == productID {
			return true
		}
	}
	return false
}
