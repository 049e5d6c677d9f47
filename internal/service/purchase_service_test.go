package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"movex/internal/domain"
	"movex/internal/repository"
)

// mockUserRepository is an in-memory repository.UserRepository for service
// tests.
type mockUserRepository struct {
	wishlists map[string][]domain.Product
	histories map[string][]domain.PurchaseRecord
	err       error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		wishlists: make(map[string][]domain.Product),
		histories: make(map[string][]domain.PurchaseRecord),
	}
}

func (m *mockUserRepository) GetWishlist(ctx context.Context, principal domain.Principal) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.wishlists[principal.UID]; !ok {
		m.wishlists[principal.UID] = []domain.Product{}
	}
	return m.wishlists[principal.UID], nil
}

func (m *mockUserRepository) AddToWishlist(ctx context.Context, principal domain.Principal, product domain.Product) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, item := range m.wishlists[principal.UID] {
		if item.ID == product.ID {
			return false, nil
		}
	}
	m.wishlists[principal.UID] = append(m.wishlists[principal.UID], product)
	return true, nil
}

func (m *mockUserRepository) RemoveFromWishlist(ctx context.Context, principal domain.Principal, productID string) error {
	if m.err != nil {
		return m.err
	}
	wishlist, ok := m.wishlists[principal.UID]
	if !ok {
		return repository.ErrUserNotFound
	}
	for i, item := range wishlist {
		if item.ID == productID {
			m.wishlists[principal.UID] = append(wishlist[:i], wishlist[i+1:]...)
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (m *mockUserRepository) GetPurchaseHistory(ctx context.Context, principal domain.Principal) ([]domain.PurchaseRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.histories[principal.UID]; !ok {
		m.histories[principal.UID] = []domain.PurchaseRecord{}
	}
	return m.histories[principal.UID], nil
}

func (m *mockUserRepository) AppendPurchase(ctx context.Context, principal domain.Principal, record domain.PurchaseRecord) error {
	if m.err != nil {
		return m.err
	}
	m.histories[principal.UID] = append(m.histories[principal.UID], record)
	return nil
}

func (m *mockUserRepository) FindPurchase(ctx context.Context, uid, orderID string) (*domain.PurchaseRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, record := range m.histories[uid] {
		if record.OrderID == orderID {
			return &record, nil
		}
	}
	return nil, repository.ErrPurchaseNotFound
}

var testPrincipal = domain.Principal{UID: "uid-1", Email: "user@example.com", Name: "Test User"}

func TestNewOrderIDFormat(t *testing.T) {
	id := NewOrderID()
	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		t.Fatalf("expected ORD-<timestamp>-<suffix>, got %q", id)
	}
	if parts[0] != "ORD" {
		t.Errorf("expected ORD prefix, got %q", parts[0])
	}
	if len(parts[2]) != 12 {
		t.Errorf("expected 12-character suffix, got %q", parts[2])
	}
}

// Property: order ids stay distinct even when generated in a tight loop
// within the same millisecond.
func TestProperty_OrderIDsAreUnique(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("batches of generated ids contain no duplicates", prop.ForAll(
		func(n int) bool {
			seen := make(map[string]bool, n)
			for i := 0; i < n; i++ {
				id := NewOrderID()
				if seen[id] {
					t.Logf("FAIL: duplicate order id %s", id)
					return false
				}
				seen[id] = true
			}
			return true
		},
		gen.IntRange(2, 500),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRecordPurchaseRejectsEmptyItems(t *testing.T) {
	svc := NewPurchaseService(newMockUserRepository())

	_, err := svc.RecordPurchase(context.Background(), testPrincipal, nil, 0, time.Time{})
	if !errors.Is(err, ErrEmptyPurchase) {
		t.Fatalf("expected ErrEmptyPurchase, got %v", err)
	}
}

func TestRecordPurchaseComputesTotalWhenOmitted(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewPurchaseService(repo)

	items := []domain.PurchaseItem{
		{ProductID: "p1", Name: "One", Price: 10, Quantity: 2},
		{ProductID: "p2", Name: "Two", Price: 5.5, Quantity: 1},
	}

	record, err := svc.RecordPurchase(context.Background(), testPrincipal, items, 0, time.Time{})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if record.TotalAmount != 25.5 {
		t.Errorf("expected computed total 25.5, got %f", record.TotalAmount)
	}
	if record.OrderID == "" {
		t.Error("expected a generated order id")
	}
	if record.Date.IsZero() {
		t.Error("expected a defaulted purchase date")
	}
	if len(repo.histories[testPrincipal.UID]) != 1 {
		t.Errorf("expected 1 stored record, got %d", len(repo.histories[testPrincipal.UID]))
	}
}

func TestRecordPurchaseKeepsCallerTotal(t *testing.T) {
	svc := NewPurchaseService(newMockUserRepository())

	items := []domain.PurchaseItem{{ProductID: "p1", Name: "One", Price: 10, Quantity: 1}}
	record, err := svc.RecordPurchase(context.Background(), testPrincipal, items, 8.5, time.Time{})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if record.TotalAmount != 8.5 {
		t.Errorf("caller-supplied total overwritten: got %f", record.TotalAmount)
	}
}

func TestGetHistoryLazilyCreatesEmptyHistory(t *testing.T) {
	svc := NewPurchaseService(newMockUserRepository())

	history, err := svc.GetHistory(context.Background(), testPrincipal)
	if err != nil {
		t.Fatalf("get history failed: %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Errorf("expected empty history for new user, got %v", history)
	}
}

func TestGetPurchaseNotFound(t *testing.T) {
	svc := NewPurchaseService(newMockUserRepository())

	_, err := svc.GetPurchase(context.Background(), "uid-1", "ORD-missing")
	if !errors.Is(err, repository.ErrPurchaseNotFound) {
		t.Fatalf("expected ErrPurchaseNotFound, got %v", err)
	}
}

func TestGetPurchaseReturnsStoredRecord(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewPurchaseService(repo)

	items := []domain.PurchaseItem{{ProductID: "p1", Name: "One", Price: 10, Quantity: 1}}
	record, err := svc.RecordPurchase(context.Background(), testPrincipal, items, 0, time.Time{})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	got, err := svc.GetPurchase(context.Background(), testPrincipal.UID, record.OrderID)
	if err != nil {
		t.Fatalf("get purchase failed: %v", err)
	}
	if got.OrderID != record.OrderID || got.TotalAmount != record.TotalAmount {
		t.Errorf("stored record mismatch: got %+v, want %+v", got, record)
	}
}
