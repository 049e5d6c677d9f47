package service

import (
	"context"
	"fmt"

	"movex/internal/domain"
	"movex/internal/repository"
)

// CatalogService defines read-only projections over the product catalog.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListDiscounted(ctx context.Context) ([]domain.Product, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogService{productRepo: productRepo}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *catalogService) ListDiscounted(ctx context.Context) ([]domain.Product, error) {
	products, err := s.productRepo.FindDiscounted(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list discounted products: %w", err)
	}
	return products, nil
}
