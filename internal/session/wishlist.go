package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"movex/internal/domain"
)

// AddToWishlist adds a product to the session's wishlist. The mutation is
// confirm-then-merge: local state changes only after the server accepts the
// add, so a failed request leaves the cache untouched. A product already
// present locally short-circuits to success without a network call.
func (m *Manager) AddToWishlist(ctx context.Context, product domain.Product) error {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	if m.inWishlistLocked(product.ID) {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if err := m.api.AddToWishlist(ctx, product); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// A concurrent add or refresh may have merged the product already.
	if m.state == StateAuthenticated && !m.inWishlistLocked(product.ID) {
		m.user.Wishlist = append(m.user.Wishlist, product)
	}
	return nil
}

// RemoveFromWishlist removes a product from the session's wishlist,
// confirm-then-merge like AddToWishlist. A server-side miss surfaces as
// api.ErrNotFound with local state unchanged.
func (m *Manager) RemoveFromWishlist(ctx context.Context, productID string) error {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	m.mu.Unlock()

	if err := m.api.RemoveFromWishlist(ctx, productID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		return nil
	}
	filtered := m.user.Wishlist[:0:0]
	for _, item := range m.user.Wishlist {
		if item.ID != productID {
			filtered = append(filtered, item)
		}
	}
	m.user.Wishlist = filtered
	return nil
}

// IsInWishlist reports membership against the cached wishlist. It never
// makes a network call.
func (m *Manager) IsInWishlist(productID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inWishlistLocked(productID)
}

func (m *Manager) inWishlistLocked(productID string) bool {
	if m.user == nil {
		return false
	}
	for _, item := range m.user.Wishlist {
		if item.ID == productID {
			return true
		}
	}
	return false
}

// Wishlist returns a copy of the cached wishlist.
func (m *Manager) Wishlist() []domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	return append([]domain.Product(nil), m.user.Wishlist...)
}

// RefreshWishlist re-fetches the server's wishlist and replaces the cached
// copy wholesale. The server wins: there is no uncommitted optimistic state
// to preserve under confirm-then-merge.
func (m *Manager) RefreshWishlist(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	m.mu.Unlock()

	wishlist, err := m.api.Wishlist(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAuthenticated {
		m.user.Wishlist = wishlist
	}
	return nil
}

// refreshLoop periodically reconciles the cached wishlist while the session
// stays authenticated. Logout closes stop before clearing the token, so no
// fetch runs with a stale token.
func (m *Manager) refreshLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(m.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := m.RefreshWishlist(context.Background()); err != nil {
				if errors.Is(err, ErrNotAuthenticated) {
					return
				}
				// Background refresh degrades silently to the stale copy.
				m.logger.Warn("Periodic wishlist refresh failed", zap.Error(err))
			}
		}
	}
}
