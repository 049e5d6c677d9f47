package cart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"

	"movex/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "cart.json"), zap.NewNop())
}

func testProduct(id string, price float64) domain.Product {
	return domain.Product{
		ID:        id,
		Name:      "Product " + id,
		Price:     price,
		Image:     "https://example.com/" + id + ".jpg",
		Available: true,
		Rating:    4,
	}
}

func TestAddIncrementsQuantityForExistingEntry(t *testing.T) {
	store := newTestStore(t)
	p := testProduct("p1", 9.99)

	store.Add(p)
	store.Add(p)

	items := store.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(items))
	}
	if items[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", items[0].Quantity)
	}
	if got := store.TotalItems(); got != 2 {
		t.Errorf("expected 2 total items, got %d", got)
	}
	if got := store.TotalPrice(); got != 2*p.Price {
		t.Errorf("expected total price %f, got %f", 2*p.Price, got)
	}
}

// Property: the cart never holds more than one entry per product id, no
// matter how many times products are added.
func TestProperty_AtMostOneEntryPerProduct(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("repeated adds keep product ids unique", prop.ForAll(
		func(ids []string) bool {
			store := newTestStore(t)

			for _, id := range ids {
				if id == "" {
					continue
				}
				store.Add(testProduct(id, 1.50))
			}

			seen := make(map[string]bool)
			for _, item := range store.Items() {
				if seen[item.ID] {
					t.Logf("FAIL: duplicate entry for product %s", item.ID)
					return false
				}
				seen[item.ID] = true
			}
			return true
		},
		gen.SliceOf(gen.OneConstOf("p1", "p2", "p3", "p4")),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestUpdateQuantityRejectsNonPositiveValues(t *testing.T) {
	store := newTestStore(t)
	p := testProduct("p1", 5)
	store.Add(p)
	store.Add(p)

	store.UpdateQuantity("p1", 0)
	if got := store.Items()[0].Quantity; got != 2 {
		t.Errorf("quantity changed by UpdateQuantity(0): got %d", got)
	}

	store.UpdateQuantity("p1", -1)
	if got := store.Items()[0].Quantity; got != 2 {
		t.Errorf("quantity changed by UpdateQuantity(-1): got %d", got)
	}

	store.UpdateQuantity("p1", 7)
	if got := store.Items()[0].Quantity; got != 7 {
		t.Errorf("expected quantity 7, got %d", got)
	}
}

func TestRemoveAbsentProductIsNoOp(t *testing.T) {
	store := newTestStore(t)
	store.Add(testProduct("p1", 3))

	store.Remove("does-not-exist")

	items := store.Items()
	if len(items) != 1 || items[0].ID != "p1" {
		t.Errorf("cart changed by removing an absent product: %+v", items)
	}
}

func TestClearEmptiesTotals(t *testing.T) {
	store := newTestStore(t)
	store.Add(testProduct("p1", 3))
	store.Add(testProduct("p2", 4))

	store.Clear()

	if got := store.TotalItems(); got != 0 {
		t.Errorf("expected 0 total items after clear, got %d", got)
	}
	if got := store.TotalPrice(); got != 0 {
		t.Errorf("expected 0 total price after clear, got %f", got)
	}
	if store.Contains("p1") {
		t.Error("cleared cart still contains p1")
	}
}

func TestRoundTripAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")

	store := NewStore(path, zap.NewNop())
	store.Add(testProduct("p1", 9.99))
	store.Add(testProduct("p1", 9.99))
	store.Add(testProduct("p2", 4.50))
	store.UpdateQuantity("p2", 3)

	// Simulate a process restart by rehydrating from the same file.
	reloaded := NewStore(path, zap.NewNop())

	want := map[string]int{"p1": 2, "p2": 3}
	items := reloaded.Items()
	if len(items) != len(want) {
		t.Fatalf("expected %d entries after reload, got %d", len(want), len(items))
	}
	for _, item := range items {
		if want[item.ID] != item.Quantity {
			t.Errorf("product %s: expected quantity %d, got %d", item.ID, want[item.ID], item.Quantity)
		}
	}
}

func TestCorruptFileFallsBackToEmptyCart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}

	store := NewStore(path, zap.NewNop())

	if got := store.TotalItems(); got != 0 {
		t.Errorf("expected empty cart from corrupt file, got %d items", got)
	}

	// The store must stay usable after the fallback.
	store.Add(testProduct("p1", 2))
	if !store.Contains("p1") {
		t.Error("store unusable after corrupt-file fallback")
	}
}

func TestMissingFileIsEmptyCart(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope", "cart.json"), zap.NewNop())

	if got := store.TotalItems(); got != 0 {
		t.Errorf("expected empty cart for missing file, got %d items", got)
	}
}
