// internal/domain/template/entity.go
package template

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Template represents a sellable website template
type Template struct {
	ID                 string         `gorm:"type:uuid;primaryKey" json:"id"`
	Slug               string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Title              string         `gorm:"not null;size:255" json:"title"`
	Description        string         `gorm:"type:text" json:"description"`
	Price              float64        `gorm:"not null" json:"price"`
	DiscountPercentage *float64       `json:"discount_percentage,omitempty"`
	ImageURL           string         `gorm:"size:500" json:"image_url"`
	PreviewURL         string         `gorm:"size:500" json:"preview_url"`
	Category           string         `gorm:"index;size:100" json:"category"`
	Tags               string         `gorm:"size:500" json:"tags"` // Comma-separated tags
	IsPack             bool           `gorm:"default:false" json:"is_pack"`
	IsActive           bool           `gorm:"default:true" json:"is_active"`
	IsFeatured         bool           `gorm:"default:false" json:"is_featured"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	// ReviewCount is derived on single-template reads, never persisted
	ReviewCount int64 `gorm:"-" json:"review_count"`

	// Relationships
	Reviews []Review `gorm:"foreignKey:TemplateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"reviews,omitempty"`
}

// Review represents a customer review for a template
type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TemplateID string    `gorm:"type:uuid;not null;index" json:"template_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Rating     int       `gorm:"not null" json:"rating"` // 1-5 stars
	Title      string    `gorm:"size:255" json:"title"`
	Comment    string    `gorm:"type:text" json:"comment"`
	IsApproved bool      `gorm:"default:true" json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EffectivePrice returns the price a buyer pays, after any template
// discount, rounded to cents.
func (t *Template) EffectivePrice() float64 {
	if t.DiscountPercentage == nil || *t.DiscountPercentage <= 0 {
		return t.Price
	}
	discounted := t.Price * (1 - *t.DiscountPercentage/100)
	return math.Round(discounted*100) / 100
}

// HasDiscount reports whether the template carries an active discount
func (t *Template) HasDiscount() bool {
	return t.DiscountPercentage != nil && *t.DiscountPercentage > 0
}
