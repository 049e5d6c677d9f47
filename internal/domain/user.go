package domain

// Principal is the authenticated identity extracted from a verified
// bearer token.
type Principal struct {
	UID   string
	Email string
	Name  string
}

// UserSession is the locally materialized view of an authenticated user:
// identity fields from the provider plus the cached wishlist and purchase
// history. It exists only while the user is signed in and is re-fetched on
// every auth restoration, never persisted across reloads.
type UserSession struct {
	UID             string
	Email           string
	DisplayName     string
	PhotoURL        string
	EmailVerified   bool
	Wishlist        []Product
	PurchaseHistory []PurchaseRecord
}
