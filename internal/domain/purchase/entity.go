// internal/domain/purchase/entity.go
package purchase

import (
	"encoding/json"
	"time"
)

// Purchase represents one completed checkout
type Purchase struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	Items         []byte    `gorm:"type:jsonb;not null" json:"-"` // snapshot of purchased line items
	ItemCount     int       `gorm:"not null" json:"item_count"`
	Subtotal      float64   `gorm:"not null" json:"subtotal"`
	Discount      float64   `gorm:"not null;default:0" json:"discount"`
	PromoCode     string    `gorm:"size:50" json:"promo_code,omitempty"`
	PromoDiscount float64   `gorm:"not null;default:0" json:"promo_discount"`
	TotalAmount   float64   `gorm:"not null" json:"total_amount"`
	PaymentStatus string    `gorm:"size:20;not null;default:'completed'" json:"payment_status"`
	PaymentRef    string    `gorm:"size:100" json:"payment_ref"`
	PurchaseDate  time.Time `gorm:"not null" json:"purchase_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the table name for the Purchase model
func (Purchase) TableName() string {
	return "purchase_history"
}

// PurchasedItem is one line of the purchase snapshot, frozen at checkout
type PurchasedItem struct {
	TemplateID string  `json:"template_id"`
	Title      string  `json:"title"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	LineTotal  float64 `json:"line_total"`
}

// DecodeItems unmarshals the stored item snapshot
func (p *Purchase) DecodeItems() ([]PurchasedItem, error) {
	var items []PurchasedItem
	if err := json.Unmarshal(p.Items, &items); err != nil {
		return nil, err
	}
	return items, nil
}
