package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"movex/internal/auth"
	"movex/internal/domain"
	"movex/internal/middleware"
	"movex/internal/repository"
	"movex/internal/service"
)

const testSecret = "test-secret"

// fakeWishlistService is an in-memory service.WishlistService for handler
// tests.
type fakeWishlistService struct {
	wishlists map[string][]domain.Product
}

func newFakeWishlistService() *fakeWishlistService {
	return &fakeWishlistService{wishlists: make(map[string][]domain.Product)}
}

func (f *fakeWishlistService) GetWishlist(ctx context.Context, principal domain.Principal) ([]domain.Product, error) {
	if _, ok := f.wishlists[principal.UID]; !ok {
		f.wishlists[principal.UID] = []domain.Product{}
	}
	return f.wishlists[principal.UID], nil
}

func (f *fakeWishlistService) AddProduct(ctx context.Context, principal domain.Principal, product domain.Product) (bool, error) {
	for _, item := range f.wishlists[principal.UID] {
		if item.ID == product.ID {
			return false, nil
		}
	}
	f.wishlists[principal.UID] = append(f.wishlists[principal.UID], product)
	return true, nil
}

func (f *fakeWishlistService) RemoveProduct(ctx context.Context, principal domain.Principal, productID string) error {
	wishlist, ok := f.wishlists[principal.UID]
	if !ok {
		return repository.ErrUserNotFound
	}
	for i, item := range wishlist {
		if item.ID == productID {
			f.wishlists[principal.UID] = append(wishlist[:i], wishlist[i+1:]...)
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func newWishlistRouter(t *testing.T, svc service.WishlistService) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	verifier := auth.NewJWTVerifier(testSecret)
	handler := NewWishlistHandler(svc, zap.NewNop())
	handler.RegisterRoutes(r, middleware.AuthMiddleware(verifier, zap.NewNop()))
	return r
}

func bearerToken(t *testing.T, uid string) string {
	t.Helper()
	token, err := auth.SignToken(testSecret, domain.Principal{UID: uid, Email: uid + "@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return "Bearer " + token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Error
}

func TestWishlistRequiresToken(t *testing.T) {
	r := newWishlistRouter(t, newFakeWishlistService())

	req := httptest.NewRequest(http.MethodGet, "/api/wishlist/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg == "" {
		t.Error("expected an error message in the envelope")
	}
}

func TestWishlistRejectsInvalidToken(t *testing.T) {
	r := newWishlistRouter(t, newFakeWishlistService())

	req := httptest.NewRequest(http.MethodGet, "/api/wishlist/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGetWishlistReturnsEmptyListForNewUser(t *testing.T) {
	r := newWishlistRouter(t, newFakeWishlistService())

	req := httptest.NewRequest(http.MethodGet, "/api/wishlist/", nil)
	req.Header.Set("Authorization", bearerToken(t, "uid-1"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body WishlistResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Wishlist == nil || len(body.Wishlist) != 0 {
		t.Errorf("expected empty wishlist, got %v", body.Wishlist)
	}
}

func TestAddProductRejectsMissingID(t *testing.T) {
	r := newWishlistRouter(t, newFakeWishlistService())

	payload := `{"product":{"name":"No ID","price":10}}`
	req := httptest.NewRequest(http.MethodPost, "/api/wishlist/add", bytes.NewBufferString(payload))
	req.Header.Set("Authorization", bearerToken(t, "uid-1"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "invalid product data" {
		t.Errorf("expected 'invalid product data', got %q", msg)
	}
}

func TestAddProductCreatesThenReportsDuplicate(t *testing.T) {
	svc := newFakeWishlistService()
	r := newWishlistRouter(t, svc)

	payload, _ := json.Marshal(AddToWishlistRequest{
		Product: domain.Product{ID: "p1", Name: "One", Price: 10},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/wishlist/add", bytes.NewReader(payload))
	req.Header.Set("Authorization", bearerToken(t, "uid-1"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first add, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/wishlist/add", bytes.NewReader(payload))
	req.Header.Set("Authorization", bearerToken(t, "uid-1"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate add, got %d", rec.Code)
	}
	var body WishlistMutationResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Message != "product already in wishlist" {
		t.Errorf("unexpected duplicate message %q", body.Message)
	}
	if got := len(svc.wishlists["uid-1"]); got != 1 {
		t.Errorf("expected 1 stored entry, got %d", got)
	}
}

func TestRemoveProductNotFound(t *testing.T) {
	svc := newFakeWishlistService()
	svc.wishlists["uid-1"] = []domain.Product{{ID: "p1"}}
	r := newWishlistRouter(t, svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/wishlist/remove/missing", nil)
	req.Header.Set("Authorization", bearerToken(t, "uid-1"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "product not found in wishlist" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestRemoveProductUnknownUser(t *testing.T) {
	r := newWishlistRouter(t, newFakeWishlistService())

	req := httptest.NewRequest(http.MethodDelete, "/api/wishlist/remove/p1", nil)
	req.Header.Set("Authorization", bearerToken(t, "uid-unknown"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "user not found" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestRemoveProductSucceeds(t *testing.T) {
	svc := newFakeWishlistService()
	svc.wishlists["uid-1"] = []domain.Product{{ID: "p1", Name: "One"}}
	r := newWishlistRouter(t, svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/wishlist/remove/p1", nil)
	req.Header.Set("Authorization", bearerToken(t, "uid-1"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := len(svc.wishlists["uid-1"]); got != 0 {
		t.Errorf("expected empty wishlist after remove, got %d entries", got)
	}
}
