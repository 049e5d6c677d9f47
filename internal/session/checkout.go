package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"movex/internal/domain"
)

var ErrEmptyCart = errors.New("cart is empty")

// Checkout completes a purchase: the cart is recorded to the user's
// purchase history when a session exists, and cleared either way. An
// anonymous checkout still completes with the history simply not recorded;
// a recording failure does not block checkout either, but is reported so
// the UI can surface it.
func (m *Manager) Checkout(ctx context.Context) (orderID string, err error) {
	items := m.cart.Items()
	if len(items) == 0 {
		return "", ErrEmptyCart
	}

	m.mu.Lock()
	authenticated := m.state == StateAuthenticated
	m.mu.Unlock()

	if !authenticated {
		m.cart.Clear()
		return "", nil
	}

	purchaseItems := make([]domain.PurchaseItem, len(items))
	total := 0.0
	for i, item := range items {
		purchaseItems[i] = domain.PurchaseItem{
			ProductID: item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		}
		total += item.Subtotal()
	}

	orderID, recordErr := m.api.RecordPurchase(ctx, purchaseItems, total)

	// Checkout completion is never blocked by history recording.
	m.cart.Clear()

	if recordErr != nil {
		m.logger.Warn("Failed to record purchase history", zap.Error(recordErr))
		return "", fmt.Errorf("purchase completed but history was not recorded: %w", recordErr)
	}

	record := domain.PurchaseRecord{
		OrderID:     orderID,
		Items:       purchaseItems,
		TotalAmount: total,
		Date:        time.Now().UTC(),
	}

	m.mu.Lock()
	if m.state == StateAuthenticated {
		m.user.PurchaseHistory = append(m.user.PurchaseHistory, record)
	}
	m.mu.Unlock()

	return orderID, nil
}

// LoadPurchaseHistory replaces the cached purchase history with the
// server's copy.
func (m *Manager) LoadPurchaseHistory(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	m.mu.Unlock()

	history, err := m.api.PurchaseHistory(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAuthenticated {
		m.user.PurchaseHistory = history
	}
	return nil
}
