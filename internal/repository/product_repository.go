package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"movex/internal/domain"
)

// ProductRepository defines read-only access to the product catalog.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindDiscounted(ctx context.Context) ([]domain.Product, error)
}

type productRepository struct {
	client *firestore.Client
}

// NewProductRepository creates a Firestore-backed ProductRepository.
func NewProductRepository(client *firestore.Client) ProductRepository {
	return &productRepository{client: client}
}

func (r *productRepository) col() *firestore.CollectionRef {
	return r.client.Collection("products")
}

func collectProducts(iter *firestore.DocumentIterator) ([]domain.Product, error) {
	defer iter.Stop()

	products := []domain.Product{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate products: %w", err)
		}

		var product domain.Product
		if err := snap.DataTo(&product); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, product)
	}
	return products, nil
}

// FindAll returns every product in the catalog.
func (r *productRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	return collectProducts(r.col().Documents(ctx))
}

// FindByID returns the product with the given catalog id. Products carry
// their own id field, so lookup is a query rather than a document get.
func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	iter := r.col().Where("id", "==", id).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	var product domain.Product
	if err := snap.DataTo(&product); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	return &product, nil
}

// FindDiscounted returns products that carry a pre-discount price.
func (r *productRepository) FindDiscounted(ctx context.Context) ([]domain.Product, error) {
	return collectProducts(r.col().Where("oldPrice", ">", 0).Documents(ctx))
}
