package merchant

// Category groups merchants by line of business.
type Category struct {
	ID          string
	Name        string
	Description string
}

// Merchant is the payee side of a purchase. Read-only from the
// transaction core's perspective.
type Merchant struct {
	ID          string
	Name        string
	PhoneNumber string
	Category    Category
}
