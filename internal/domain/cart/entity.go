// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// CartItem represents a persisted cart row, one per (user, template) pair
type CartItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_cart_user_template" json:"user_id"`
	TemplateID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_template" json:"template_id"`
	Quantity     int       `gorm:"not null;default:1" json:"quantity"`
	PricePerItem float64   `gorm:"not null" json:"price_per_item"`
	TotalPrice   float64   `gorm:"not null" json:"total_price"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the table name for the CartItem model
func (CartItem) TableName() string {
	return "cart_items"
}

// LineItem is a persisted cart row hydrated against live template data.
// Title, image and pricing reflect the template's current state; AddedAt
// is preserved from the persisted row.
type LineItem struct {
	ID            string    `json:"id"` // template ID
	Title         string    `json:"title"`
	Image         string    `json:"image,omitempty"`
	Price         float64   `json:"price"`
	DiscountPrice *float64  `json:"discount_price,omitempty"`
	Quantity      int       `json:"quantity"`
	Category      string    `json:"category,omitempty"`
	IsPack        bool      `json:"is_pack"`
	AddedAt       time.Time `json:"added_at"`
}

// EffectiveUnitPrice returns the price one unit actually costs
func (li *LineItem) EffectiveUnitPrice() float64 {
	if li.DiscountPrice != nil {
		return *li.DiscountPrice
	}
	return li.Price
}

// CartTotals holds aggregate values derived from the current line items.
// Never persisted, always recomputed on read.
type CartTotals struct {
	TotalItems int     `json:"total_items"`
	Subtotal   float64 `json:"subtotal"`
	Discount   float64 `json:"discount"`
}

// PromoState holds the promo applied to the current session. DiscountAmount
// is frozen at the subtotal observed when the code was applied.
type PromoState struct {
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discount_amount"`
}

// Summary is the full read surface of a cart: line items, derived totals,
// promo state and the payable total.
type Summary struct {
	Items           []LineItem `json:"items"`
	TotalItems      int        `json:"total_items"`
	Subtotal        float64    `json:"subtotal"`
	Discount        float64    `json:"discount"`
	PromoCode       string     `json:"promo_code,omitempty"`
	PromoDiscount   float64    `json:"promo_discount"`
	Total           float64    `json:"total"`
	IsLoading       bool       `json:"is_loading"`
	IsAuthenticated bool       `json:"is_authenticated"`
}
