// internal/domain/cart/promo.go
package cart

// promoCodes maps promo code to percentage off. Lookup is case-sensitive.
var promoCodes = map[string]float64{
	"WELCOME10":  10,
	"SAVE20":     20,
	"TEMPLATE50": 50,
}

// PromoResult is the outcome of validating a promo code against a subtotal
type PromoResult struct {
	IsValid        bool    `json:"is_valid"`
	DiscountAmount float64 `json:"discount_amount"`
}

// EvaluatePromo validates a promo code and computes its flat discount on the
// given subtotal. Unknown codes yield an invalid result with zero discount.
func EvaluatePromo(code string, subtotal float64) PromoResult {
	pct, ok := promoCodes[code]
	if !ok {
		return PromoResult{}
	}
	return PromoResult{
		IsValid:        true,
		DiscountAmount: Round2(subtotal * pct / 100),
	}
}
