package service

import (
	"github.com/shopspring/decimal"

	"github.com/tejasmadane2310/billing-ledger/internal/core/domain"
)

// Totals is the computed monetary breakdown of a cart.
type Totals struct {
	Subtotal domain.Money
	Tax      domain.Money
	Discount domain.Money
	Final    domain.Money
}

// ComputeTotals derives the invoice amounts from the cart lines. Pure: no I/O,
// deterministic given its inputs.
//
// Tax and discount are each computed from the pre-tax subtotal and rounded
// independently; final is subtotal + tax − discount, rounded again (a no-op
// given the inputs are already cent-precise). This exact ordering reproduces
// the totals of the existing ledger and must not change.
func ComputeTotals(lines []domain.CartLine, taxRate, discountRate decimal.Decimal) Totals {
	subtotal := domain.ZeroMoney()
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
	}

	tax := subtotal.MulRate(taxRate).Round()
	discount := subtotal.MulRate(discountRate).Round()
	final := subtotal.Add(tax).Sub(discount).Round()

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Final:    final,
	}
}
