package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tejasmadane2310/billing-ledger/internal/core/domain"
)

func line(price string, qty int) domain.CartLine {
	unit := domain.MustMoney(price)
	return domain.CartLine{
		ProductID: "p",
		Quantity:  qty,
		UnitPrice: unit,
		LineTotal: unit.MulInt(qty),
	}
}

func TestComputeTotals_ReferenceScenario(t *testing.T) {
	// price 149.50 × qty 2 at 18% tax, 10% discount
	totals := ComputeTotals([]domain.CartLine{line("149.50", 2)},
		DefaultTaxRate, DefaultDiscountRate)

	assert.Equal(t, "299.00", totals.Subtotal.String())
	assert.Equal(t, "53.82", totals.Tax.String())
	assert.Equal(t, "29.90", totals.Discount.String())
	assert.Equal(t, "322.92", totals.Final.String())
}

func TestComputeTotals_MultipleLines(t *testing.T) {
	lines := []domain.CartLine{
		line("149.50", 2),
		line("10.25", 1),
		line("0.33", 3),
	}
	totals := ComputeTotals(lines, DefaultTaxRate, DefaultDiscountRate)

	// 299.00 + 10.25 + 0.99
	assert.Equal(t, "310.24", totals.Subtotal.String())

	sum := domain.ZeroMoney()
	for _, l := range lines {
		sum = sum.Add(l.LineTotal)
	}
	assert.True(t, totals.Subtotal.Equal(sum))
}

func TestComputeTotals_IndependentRounding(t *testing.T) {
	// subtotal 10.25: tax 1.845 → 1.85, discount 1.025 → 1.03. Both rounded
	// from the pre-tax subtotal, not from each other.
	totals := ComputeTotals([]domain.CartLine{line("10.25", 1)},
		DefaultTaxRate, DefaultDiscountRate)

	assert.Equal(t, "1.85", totals.Tax.String())
	assert.Equal(t, "1.03", totals.Discount.String())
	assert.Equal(t, "11.07", totals.Final.String())
}

func TestComputeTotals_FinalInvariant(t *testing.T) {
	carts := [][]domain.CartLine{
		{line("0.01", 1)},
		{line("0.33", 1)},
		{line("99.99", 7)},
		{line("149.50", 2), line("10.25", 3)},
	}
	for _, lines := range carts {
		totals := ComputeTotals(lines, DefaultTaxRate, DefaultDiscountRate)
		want := totals.Subtotal.Add(totals.Tax).Sub(totals.Discount).Round()
		assert.True(t, totals.Final.Equal(want),
			"final %s != subtotal+tax-discount %s", totals.Final, want)
	}
}

func TestComputeTotals_ZeroRates(t *testing.T) {
	cfg := Config{}
	totals := ComputeTotals([]domain.CartLine{line("50.00", 1)}, cfg.TaxRate, cfg.DiscountRate)

	assert.Equal(t, "0.00", totals.Tax.String())
	assert.Equal(t, "0.00", totals.Discount.String())
	assert.Equal(t, "50.00", totals.Final.String())
}
