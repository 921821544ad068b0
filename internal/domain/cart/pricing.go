// internal/domain/cart/pricing.go
package cart

import "math"

// Round2 rounds a monetary amount to cents
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeTotals derives aggregate totals from a list of line items. Pure and
// order-independent: amounts accumulate in full precision and are rounded
// only at the output boundary so repeated rounding cannot compound.
func ComputeTotals(items []LineItem) CartTotals {
	var totals CartTotals
	var subtotal, discount float64

	for _, item := range items {
		totals.TotalItems += item.Quantity
		subtotal += item.EffectiveUnitPrice() * float64(item.Quantity)
		if item.DiscountPrice != nil && *item.DiscountPrice < item.Price {
			discount += (item.Price - *item.DiscountPrice) * float64(item.Quantity)
		}
	}

	totals.Subtotal = Round2(subtotal)
	totals.Discount = Round2(discount)
	return totals
}
