package service

import (
	"context"
	"fmt"

	"movex/internal/domain"
	"movex/internal/repository"
)

// WishlistService defines the business logic for the per-user wishlist.
// Adds and removes are idempotent at the storage layer, so duplicate
// requests from racing clients are safe no-ops.
type WishlistService interface {
	GetWishlist(ctx context.Context, principal domain.Principal) ([]domain.Product, error)
	AddProduct(ctx context.Context, principal domain.Principal, product domain.Product) (added bool, err error)
	RemoveProduct(ctx context.Context, principal domain.Principal, productID string) error
}

type wishlistService struct {
	userRepo repository.UserRepository
}

// NewWishlistService creates a new instance of WishlistService
func NewWishlistService(userRepo repository.UserRepository) WishlistService {
	return &wishlistService{userRepo: userRepo}
}

// GetWishlist returns the user's wishlist, creating the backing user record
// with an empty wishlist on first contact.
func (s *wishlistService) GetWishlist(ctx context.Context, principal domain.Principal) ([]domain.Product, error) {
	wishlist, err := s.userRepo.GetWishlist(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}
	return wishlist, nil
}

// AddProduct stores a snapshot of the product in the user's wishlist.
// Returns added=false when the product was already present.
func (s *wishlistService) AddProduct(ctx context.Context, principal domain.Principal, product domain.Product) (bool, error) {
	added, err := s.userRepo.AddToWishlist(ctx, principal, product)
	if err != nil {
		return false, fmt.Errorf("failed to add product to wishlist: %w", err)
	}
	return added, nil
}

// RemoveProduct deletes the product with the given id from the wishlist.
// Returns repository.ErrUserNotFound or repository.ErrProductNotFound when
// there is nothing to remove.
func (s *wishlistService) RemoveProduct(ctx context.Context, principal domain.Principal, productID string) error {
	if err := s.userRepo.RemoveFromWishlist(ctx, principal, productID); err != nil {
		if err == repository.ErrUserNotFound || err == repository.ErrProductNotFound {
			return err
		}
		return fmt.Errorf("failed to remove product from wishlist: %w", err)
	}
	return nil
}
