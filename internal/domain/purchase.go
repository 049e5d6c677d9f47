package domain

import "time"

// PurchaseItem is a purchased product line inside a purchase record.
type PurchaseItem struct {
	ProductID string  `json:"id" firestore:"id"`
	Name      string  `json:"name" firestore:"name"`
	Price     float64 `json:"price" firestore:"price"`
	Quantity  int     `json:"quantity" firestore:"quantity"`
}

// PurchaseRecord is an immutable record of a completed checkout. Records are
// append-only; they are never mutated or deleted once created.
type PurchaseRecord struct {
	OrderID     string         `json:"orderId" firestore:"orderId"`
	Items       []PurchaseItem `json:"items" firestore:"items"`
	TotalAmount float64        `json:"totalAmount" firestore:"totalAmount"`
	Date        time.Time      `json:"date" firestore:"date"`
}
