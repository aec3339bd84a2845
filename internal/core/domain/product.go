package domain

import "time"

type Product struct {
	ID        string
	Name      string
	Price     Money
	SKU       string
	CreatedAt time.Time
}

// Inventory is one-to-one with Product. Stock is never negative; the only
// writers are the billing commit and the admin stock override.
type Inventory struct {
	ProductID string
	Stock     int
	UpdatedAt time.Time
}

// ProductSnapshot is the price/stock view the cart-building phase reads. The
// stock value is advisory; the authoritative check happens inside the commit
// transaction.
type ProductSnapshot struct {
	ProductID string
	Name      string
	Price     Money
	Stock     int
}
