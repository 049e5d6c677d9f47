package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"movex/internal/domain"
	"movex/internal/repository"
)

var ErrEmptyPurchase = errors.New("purchase must contain at least one item")

// PurchaseService defines the business logic for the append-only purchase
// history.
type PurchaseService interface {
	GetHistory(ctx context.Context, principal domain.Principal) ([]domain.PurchaseRecord, error)
	RecordPurchase(ctx context.Context, principal domain.Principal, items []domain.PurchaseItem, totalAmount float64, date time.Time) (*domain.PurchaseRecord, error)
	GetPurchase(ctx context.Context, uid, orderID string) (*domain.PurchaseRecord, error)
}

type purchaseService struct {
	userRepo repository.UserRepository
}

// NewPurchaseService creates a new instance of PurchaseService
func NewPurchaseService(userRepo repository.UserRepository) PurchaseService {
	return &purchaseService{userRepo: userRepo}
}

// NewOrderID generates a globally unique order identifier. The timestamp
// keeps ids roughly sortable; the random suffix keeps ids created within
// the same millisecond distinct.
func NewOrderID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}

// GetHistory returns the user's purchase records, creating the backing user
// record with an empty history on first contact.
func (s *purchaseService) GetHistory(ctx context.Context, principal domain.Principal) ([]domain.PurchaseRecord, error) {
	history, err := s.userRepo.GetPurchaseHistory(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase history: %w", err)
	}
	return history, nil
}

// RecordPurchase appends a new immutable record to the user's history.
// TotalAmount is computed from the items when the caller omits it; the date
// defaults to now.
func (s *purchaseService) RecordPurchase(ctx context.Context, principal domain.Principal, items []domain.PurchaseItem, totalAmount float64, date time.Time) (*domain.PurchaseRecord, error) {
	if len(items) == 0 {
		return nil, ErrEmptyPurchase
	}

	if totalAmount == 0 {
		for _, item := range items {
			totalAmount += item.Price * float64(item.Quantity)
		}
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	record := domain.PurchaseRecord{
		OrderID:     NewOrderID(),
		Items:       items,
		TotalAmount: totalAmount,
		Date:        date,
	}

	if err := s.userRepo.AppendPurchase(ctx, principal, record); err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}
	return &record, nil
}

// GetPurchase returns a single purchase by order id, scoped to the user.
func (s *purchaseService) GetPurchase(ctx context.Context, uid, orderID string) (*domain.PurchaseRecord, error) {
	record, err := s.userRepo.FindPurchase(ctx, uid, orderID)
	if err != nil {
		if err == repository.ErrPurchaseNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find purchase: %w", err)
	}
	return record, nil
}
