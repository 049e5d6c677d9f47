package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"movex/internal/domain"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
)

// UserRepository defines data access for per-user documents: the wishlist
// and the purchase history. The backing user document is created lazily on
// first contact.
type UserRepository interface {
	GetWishlist(ctx context.Context, principal domain.Principal) ([]domain.Product, error)
	AddToWishlist(ctx context.Context, principal domain.Principal, product domain.Product) (added bool, err error)
	RemoveFromWishlist(ctx context.Context, principal domain.Principal, productID string) error
	GetPurchaseHistory(ctx context.Context, principal domain.Principal) ([]domain.PurchaseRecord, error)
	AppendPurchase(ctx context.Context, principal domain.Principal, record domain.PurchaseRecord) error
	FindPurchase(ctx context.Context, uid, orderID string) (*domain.PurchaseRecord, error)
}

// userDoc is the Firestore shape of a user document.
type userDoc struct {
	Email           string                  `firestore:"email"`
	DisplayName     string                  `firestore:"displayName"`
	Wishlist        []domain.Product        `firestore:"wishlist"`
	PurchaseHistory []domain.PurchaseRecord `firestore:"purchaseHistory"`
}

// purchaseDoc mirrors a purchase record into the purchases collection so
// single orders can be queried without loading the whole history array.
type purchaseDoc struct {
	UserID      string                `firestore:"userId"`
	OrderID     string                `firestore:"orderId"`
	Items       []domain.PurchaseItem `firestore:"items"`
	TotalAmount float64               `firestore:"totalAmount"`
	Date        time.Time             `firestore:"date"`
}

type userRepository struct {
	client *firestore.Client
}

// NewUserRepository creates a Firestore-backed UserRepository.
func NewUserRepository(client *firestore.Client) UserRepository {
	return &userRepository{client: client}
}

func (r *userRepository) users() *firestore.CollectionRef {
	return r.client.Collection("users")
}

func (r *userRepository) purchases() *firestore.CollectionRef {
	return r.client.Collection("purchases")
}

func newUserDoc(principal domain.Principal) userDoc {
	return userDoc{
		Email:           principal.Email,
		DisplayName:     principal.Name,
		Wishlist:        []domain.Product{},
		PurchaseHistory: []domain.PurchaseRecord{},
	}
}

// getOrCreate loads the user document, creating it with empty wishlist and
// purchase history when absent.
func (r *userRepository) getOrCreate(ctx context.Context, principal domain.Principal) (*userDoc, error) {
	ref := r.users().Doc(principal.UID)

	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		doc := newUserDoc(principal)
		if _, err := ref.Set(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to create user document: %w", err)
		}
		return &doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user document: %w", err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode user document: %w", err)
	}
	return &doc, nil
}

// GetWishlist returns the user's wishlist, lazily creating the backing
// document on first contact.
func (r *userRepository) GetWishlist(ctx context.Context, principal domain.Principal) ([]domain.Product, error) {
	doc, err := r.getOrCreate(ctx, principal)
	if err != nil {
		return nil, err
	}
	if doc.Wishlist == nil {
		return []domain.Product{}, nil
	}
	return doc.Wishlist, nil
}

// AddToWishlist appends the product snapshot to the user's wishlist using a
// set-union update. Returns added=false when the product is already present;
// duplicate adds are a safe no-op.
func (r *userRepository) AddToWishlist(ctx context.Context, principal domain.Principal, product domain.Product) (bool, error) {
	ref := r.users().Doc(principal.UID)

	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		doc := newUserDoc(principal)
		doc.Wishlist = []domain.Product{product}
		if _, err := ref.Set(ctx, doc); err != nil {
			return false, fmt.Errorf("failed to create user document: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load user document: %w", err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return false, fmt.Errorf("failed to decode user document: %w", err)
	}

	for _, item := range doc.Wishlist {
		if item.ID == product.ID {
			return false, nil
		}
	}

	// ArrayUnion keeps concurrent adds of the same snapshot idempotent.
	_, err = ref.Update(ctx, []firestore.Update{
		{Path: "wishlist", Value: firestore.ArrayUnion(product)},
	})
	if err != nil {
		return false, fmt.Errorf("failed to update wishlist: %w", err)
	}
	return true, nil
}

// RemoveFromWishlist removes the product with the given id. The stored
// snapshot may differ from the caller's copy, so removal filters by id
// instead of using an array-remove by value.
func (r *userRepository) RemoveFromWishlist(ctx context.Context, principal domain.Principal, productID string) error {
	ref := r.users().Doc(principal.UID)

	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load user document: %w", err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return fmt.Errorf("failed to decode user document: %w", err)
	}

	filtered := make([]domain.Product, 0, len(doc.Wishlist))
	found := false
	for _, item := range doc.Wishlist {
		if item.ID == productID {
			found = true
			continue
		}
		filtered = append(filtered, item)
	}
	if !found {
		return ErrProductNotFound
	}

	_, err = ref.Update(ctx, []firestore.Update{
		{Path: "wishlist", Value: filtered},
	})
	if err != nil {
		return fmt.Errorf("failed to update wishlist: %w", err)
	}
	return nil
}

// GetPurchaseHistory returns the user's purchase records, lazily creating
// the backing document on first contact.
func (r *userRepository) GetPurchaseHistory(ctx context.Context, principal domain.Principal) ([]domain.PurchaseRecord, error) {
	doc, err := r.getOrCreate(ctx, principal)
	if err != nil {
		return nil, err
	}
	if doc.PurchaseHistory == nil {
		return []domain.PurchaseRecord{}, nil
	}
	return doc.PurchaseHistory, nil
}

// AppendPurchase appends the record to the user's history with a set-union
// update and mirrors it into the purchases collection. The union append
// never overwrites the full history array, so concurrent appends from
// multiple sessions do not lose records.
func (r *userRepository) AppendPurchase(ctx context.Context, principal domain.Principal, record domain.PurchaseRecord) error {
	ref := r.users().Doc(principal.UID)

	_, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		doc := newUserDoc(principal)
		doc.PurchaseHistory = []domain.PurchaseRecord{record}
		if _, err := ref.Set(ctx, doc); err != nil {
			return fmt.Errorf("failed to create user document: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to load user document: %w", err)
	} else {
		_, err = ref.Update(ctx, []firestore.Update{
			{Path: "purchaseHistory", Value: firestore.ArrayUnion(record)},
		})
		if err != nil {
			return fmt.Errorf("failed to update purchase history: %w", err)
		}
	}

	_, _, err = r.purchases().Add(ctx, purchaseDoc{
		UserID:      principal.UID,
		OrderID:     record.OrderID,
		Items:       record.Items,
		TotalAmount: record.TotalAmount,
		Date:        record.Date,
	})
	if err != nil {
		return fmt.Errorf("failed to index purchase: %w", err)
	}
	return nil
}

// FindPurchase looks up a single purchase by order id in the purchases
// collection, scoped to the owning user.
func (r *userRepository) FindPurchase(ctx context.Context, uid, orderID string) (*domain.PurchaseRecord, error) {
	iter := r.purchases().
		Where("userId", "==", uid).
		Where("orderId", "==", orderID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}

	var record domain.PurchaseRecord
	if err := snap.DataTo(&record); err != nil {
		return nil, fmt.Errorf("failed to decode purchase: %w", err)
	}
	return &record, nil
}
