package service

import "github.com/shopspring/decimal"

// Rate defaults match the ledger this system took over: 18% GST and a flat
// 10% discount, both applied to the pre-tax subtotal.
var (
	DefaultTaxRate      = decimal.RequireFromString("0.18")
	DefaultDiscountRate = decimal.RequireFromString("0.10")
)

// Config carries the billing rates. Both are fractions applied to the
// subtotal, not percentages.
type Config struct {
	TaxRate      decimal.Decimal
	DiscountRate decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		TaxRate:      DefaultTaxRate,
		DiscountRate: DefaultDiscountRate,
	}
}
