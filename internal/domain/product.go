package domain

// Product represents a catalog product. Products are read-only from the
// storefront's perspective; wishlist entries store full snapshots of them.
type Product struct {
	ID          string  `json:"id" firestore:"id"`
	Name        string  `json:"name" firestore:"name"`
	Price       float64 `json:"price" firestore:"price"`
	OldPrice    float64 `json:"oldPrice,omitempty" firestore:"oldPrice,omitempty"`
	Image       string  `json:"image" firestore:"image"`
	Available   bool    `json:"available" firestore:"available"`
	Rating      int     `json:"rating" firestore:"rating"`
	Description string  `json:"description" firestore:"description"`
}

// OnSale reports whether the product carries a pre-discount price.
func (p Product) OnSale() bool {
	return p.OldPrice > 0
}

// CartItem is a product with a purchase quantity. The cart holds at most one
// item per product id; repeat adds increment Quantity instead.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Subtotal returns price times quantity for this line.
func (i CartItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}
