// internal/domain/cart/promo_test.go
package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluatePromo(t *testing.T) {
	tests := []struct {
		name         string
		code         string
		subtotal     float64
		wantValid    bool
		wantDiscount float64
	}{
		{"welcome tier", "WELCOME10", 100, true, 10.00},
		{"save tier", "SAVE20", 100, true, 20.00},
		{"template tier", "TEMPLATE50", 100, true, 50.00},
		{"unknown code", "NOTREAL", 100, false, 0},
		{"lookup is case-sensitive", "welcome10", 100, false, 0},
		{"rounds to cents", "SAVE20", 16.05, true, 3.21},
		{"zero subtotal", "SAVE20", 0, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EvaluatePromo(tt.code, tt.subtotal)
			assert.Equal(t, tt.wantValid, result.IsValid)
			assert.InDelta(t, tt.wantDiscount, result.DiscountAmount, 1e-9)
		})
	}
}
