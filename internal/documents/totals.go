package documents

import "github.com/shopspring/decimal"

// Money rounding rule: two decimal places, half-up (away from zero).
// Derived amounts are rounded once at each boundary so repeated
// recomputation is stable.
const moneyPlaces = 2

// LineTotal computes a line's extended price, quantity x unit price. Unit
// prices carry at most two decimals so the product is exact; the rounding is
// a no-op kept for uniformity.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(moneyPlaces)
}

// Totals aggregates a document's derived monetary fields.
type Totals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// ComputeTotals sums line totals and applies the flat tax rate (a percentage,
// 0-100). An empty line set yields all zeros.
func ComputeTotals(lineTotals []decimal.Decimal, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, lt := range lineTotals {
		subtotal = subtotal.Add(lt)
	}
	subtotal = subtotal.Round(moneyPlaces)
	tax := subtotal.Mul(taxRate).Div(decimal.NewFromInt(100)).Round(moneyPlaces)
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal.Add(tax),
	}
}
