package domain

import "time"

// Customer is created by operator action and never mutated by the billing
// core. Phone is optional and used as a lookup key; empty string means absent.
type Customer struct {
	ID        string
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
}
