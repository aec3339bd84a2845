package domain

import "time"

// CartLine is an in-memory line of a cart being built. UnitPrice is the price
// snapshotted when the line was added; a later price change does not affect an
// open cart.
type CartLine struct {
	ProductID string
	Quantity  int
	UnitPrice Money
	LineTotal Money
}

// Bill is an invoice header. Bills are immutable once committed; no update or
// delete path exists. CustomerID is empty for walk-in sales and stored as NULL.
type Bill struct {
	ID         string
	CustomerID string
	BillDate   time.Time
	Subtotal   Money
	Tax        Money
	Discount   Money
	Final      Money
}

// BillItem is an immutable invoice line, created only as part of its bill's
// commit. LineTotal == Quantity × UnitPrice, and the bill's subtotal is the
// sum of its items' line totals.
type BillItem struct {
	ID        string
	BillID    string
	ProductID string
	Quantity  int
	UnitPrice Money
	LineTotal Money
}

// Invoice is the committed bill plus its items, as returned to the caller.
type Invoice struct {
	Bill  Bill
	Items []BillItem
}

// BillSummary is a row of the recent-bills listing.
type BillSummary struct {
	BillID       string
	CustomerName string
	BillDate     time.Time
	Final        Money
}
