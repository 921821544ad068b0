// internal/domain/purchase/service.go
package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/template-marketplace/internal/domain/cart"
	"github.com/your-org/template-marketplace/internal/pkg/notify"
	"gorm.io/gorm"
)

// ErrEmptyCart signals a checkout attempt with no items
var ErrEmptyCart = errors.New("cart is empty")

// Service handles checkout and purchase history
type Service struct {
	db       *gorm.DB
	notifier notify.Sink
	log      *logrus.Logger
}

// NewService creates a new purchase service
func NewService(db *gorm.DB, notifier notify.Sink, log *logrus.Logger) *Service {
	if notifier == nil {
		notifier = notify.NopSink{}
	}
	return &Service{
		db:       db,
		notifier: notifier,
		log:      log,
	}
}

// CheckoutRequest represents payment details for a simulated charge
type CheckoutRequest struct {
	CardholderName string `json:"cardholder_name" binding:"required"`
	PaymentMethod  string `json:"payment_method" binding:"required"`
}

// CreateFromCart completes a simulated checkout: it snapshots the cart
// summary into a purchase record, marks the payment completed and clears
// the cart. The cart is cleared only after the record is persisted.
func (s *Service) CreateFromCart(ctx context.Context, store *cart.Store, req *CheckoutRequest) (*Purchase, error) {
	summary := store.Summary()
	if len(summary.Items) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]PurchasedItem, 0, len(summary.Items))
	for _, li := range summary.Items {
		unit := li.EffectiveUnitPrice()
		items = append(items, PurchasedItem{
			TemplateID: li.ID,
			Title:      li.Title,
			UnitPrice:  unit,
			Quantity:   li.Quantity,
			LineTotal:  cart.Round2(unit * float64(li.Quantity)),
		})
	}

	snapshot, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot cart items: %w", err)
	}

	now := time.Now().UTC()
	p := Purchase{
		ID:            uuid.New().String(),
		UserID:        store.UserID(),
		Items:         snapshot,
		ItemCount:     summary.TotalItems,
		Subtotal:      summary.Subtotal,
		Discount:      summary.Discount,
		PromoCode:     summary.PromoCode,
		PromoDiscount: summary.PromoDiscount,
		TotalAmount:   summary.Total,
		PaymentStatus: "completed", // simulated payment, always succeeds
		PaymentRef:    fmt.Sprintf("SIM-%s", uuid.New().String()[:8]),
		PurchaseDate:  now,
	}

	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	if err := store.Clear(ctx); err != nil {
		// Purchase is recorded; a stale cart reconciles on the next fetch
		s.log.WithError(err).WithField("purchase_id", p.ID).Warn("Failed to clear cart after checkout")
	}
	store.RemovePromo()

	event := notify.Event{
		Type:    "success",
		UserID:  p.UserID,
		Message: fmt.Sprintf("Purchase completed: %d item(s) for $%.2f", p.ItemCount, p.TotalAmount),
		Data:    map[string]interface{}{"purchase_id": p.ID},
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.log.WithError(err).Debug("Notification publish failed")
	}

	return &p, nil
}

// ListByUser returns a user's purchases, newest first
func (s *Service) ListByUser(ctx context.Context, userID uint) ([]Purchase, error) {
	var purchases []Purchase
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("purchase_date DESC").
		Find(&purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}

// GetByID returns one purchase, scoped to its owner
func (s *Service) GetByID(ctx context.Context, userID uint, purchaseID string) (*Purchase, error) {
	var p Purchase
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", purchaseID, userID).
		First(&p)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("purchase not found")
		}
		return nil, fmt.Errorf("failed to retrieve purchase: %w", result.Error)
	}
	return &p, nil
}
