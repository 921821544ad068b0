// internal/domain/cart/repository.go
package cart

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists cart rows keyed by (user_id, template_id)
type Repository interface {
	ListByUser(ctx context.Context, userID uint) ([]CartItem, error)
	Upsert(ctx context.Context, item *CartItem) error
	UpdateQuantity(ctx context.Context, userID uint, templateID string, quantity int, totalPrice float64) error
	Delete(ctx context.Context, userID uint, templateID string) error
	DeleteAll(ctx context.Context, userID uint) error
}

// GormRepository is the database-backed cart repository
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a cart repository over the given database
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// ListByUser returns all persisted cart rows for a user, oldest first
func (r *GormRepository) ListByUser(ctx context.Context, userID uint) ([]CartItem, error) {
	var items []CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	return items, nil
}

// Upsert inserts a cart row, or updates quantity and pricing if a row for
// the same (user, template) pair already exists. The conflict clause keeps
// the one-row-per-pair invariant even under racing inserts.
func (r *GormRepository) Upsert(ctx context.Context, item *CartItem) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "template_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"quantity", "price_per_item", "total_price", "updated_at",
			}),
		}).
		Create(item).Error
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

// UpdateQuantity sets the quantity and derived total price of one row
func (r *GormRepository) UpdateQuantity(ctx context.Context, userID uint, templateID string, quantity int, totalPrice float64) error {
	result := r.db.WithContext(ctx).
		Model(&CartItem{}).
		Where("user_id = ? AND template_id = ?", userID, templateID).
		Updates(map[string]interface{}{
			"quantity":    quantity,
			"total_price": totalPrice,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("cart item not found")
	}
	return nil
}

// Delete removes one row
func (r *GormRepository) Delete(ctx context.Context, userID uint, templateID string) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND template_id = ?", userID, templateID).
		Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// DeleteAll removes every row belonging to a user
func (r *GormRepository) DeleteAll(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
