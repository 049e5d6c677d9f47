// Package api implements the storefront's HTTP client: bearer-token
// authenticated requests against the wishlist, purchase-history and catalog
// endpoints, with server failures mapped to typed errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"movex/internal/domain"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTransient marks network failures where no server response arrived;
	// the operation may have succeeded server-side and can be retried or
	// reconciled by a later refresh.
	ErrTransient = errors.New("transient network error")
)

// OperationError carries the server-supplied message of a rejected
// operation.
type OperationError struct {
	Status  int
	Message string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("server rejected request (%d): %s", e.Status, e.Message)
}

// TokenSource supplies the current bearer token. The session manager
// implements this; requests without a signed-in user send no token.
type TokenSource interface {
	IDToken(ctx context.Context) (string, error)
}

// Client talks to the storefront API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewClient creates an API client for the given base URL. tokens may be nil
// for anonymous catalog-only usage.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// do issues a request and decodes the JSON response into out (when non-nil).
// Non-2xx statuses are mapped to typed errors carrying the server message.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.IDToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to obtain token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	var eb errorBody
	message := http.StatusText(resp.StatusCode)
	if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil && eb.Error != "" {
		message = eb.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, message)
	default:
		return &OperationError{Status: resp.StatusCode, Message: message}
	}
}

type wishlistResponse struct {
	Wishlist []domain.Product `json:"wishlist"`
}

type addToWishlistRequest struct {
	Product domain.Product `json:"product"`
}

type purchaseHistoryResponse struct {
	PurchaseHistory []domain.PurchaseRecord `json:"purchaseHistory"`
}

type recordPurchaseRequest struct {
	Items       []domain.PurchaseItem `json:"items"`
	TotalAmount float64               `json:"totalAmount,omitempty"`
}

type recordPurchaseResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

type purchaseResponse struct {
	Purchase *domain.PurchaseRecord `json:"purchase"`
}

type productsResponse struct {
	Products []domain.Product `json:"products"`
}

type productResponse struct {
	Product *domain.Product `json:"product"`
}

// Wishlist fetches the server's canonical wishlist. First contact creates
// the backing user record server-side.
func (c *Client) Wishlist(ctx context.Context) ([]domain.Product, error) {
	var resp wishlistResponse
	if err := c.do(ctx, http.MethodGet, "/api/wishlist", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Wishlist == nil {
		return []domain.Product{}, nil
	}
	return resp.Wishlist, nil
}

// AddToWishlist asks the server to add a product snapshot. Adding a product
// that is already present is a safe no-op server-side.
func (c *Client) AddToWishlist(ctx context.Context, product domain.Product) error {
	return c.do(ctx, http.MethodPost, "/api/wishlist/add", addToWishlistRequest{Product: product}, nil)
}

// RemoveFromWishlist asks the server to remove a product by id.
func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodDelete, "/api/wishlist/remove/"+productID, nil, nil)
}

// PurchaseHistory fetches the user's purchase records.
func (c *Client) PurchaseHistory(ctx context.Context) ([]domain.PurchaseRecord, error) {
	var resp purchaseHistoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/purchase-history", nil, &resp); err != nil {
		return nil, err
	}
	if resp.PurchaseHistory == nil {
		return []domain.PurchaseRecord{}, nil
	}
	return resp.PurchaseHistory, nil
}

// RecordPurchase appends a purchase to the user's history and returns the
// server-generated order id.
func (c *Client) RecordPurchase(ctx context.Context, items []domain.PurchaseItem, totalAmount float64) (string, error) {
	var resp recordPurchaseResponse
	err := c.do(ctx, http.MethodPost, "/api/purchase-history/add", recordPurchaseRequest{
		Items:       items,
		TotalAmount: totalAmount,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.OrderID, nil
}

// Purchase fetches a single purchase by order id.
func (c *Client) Purchase(ctx context.Context, orderID string) (*domain.PurchaseRecord, error) {
	var resp purchaseResponse
	if err := c.do(ctx, http.MethodGet, "/api/purchase-history/"+orderID, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Purchase, nil
}

// Products fetches the full catalog.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var resp productsResponse
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// DiscountedProducts fetches products that carry a pre-discount price.
func (c *Client) DiscountedProducts(ctx context.Context) ([]domain.Product, error) {
	var resp productsResponse
	if err := c.do(ctx, http.MethodGet, "/api/products/discounted", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// Product fetches a single product by catalog id.
func (c *Client) Product(ctx context.Context, id string) (*domain.Product, error) {
	var resp productResponse
	if err := c.do(ctx, http.MethodGet, "/api/products/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Product, nil
}
