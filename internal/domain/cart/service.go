// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/template-marketplace/internal/domain/template"
	"github.com/your-org/template-marketplace/internal/pkg/notify"
)

var (
	// ErrNotAuthenticated signals a mutating cart operation without a
	// logged-in user. Recoverable: the caller prompts for sign-in.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrItemNotFound signals an operation on a template not in the cart
	ErrItemNotFound = errors.New("item not found in cart")

	// ErrInvalidPromoCode signals an unknown promo code
	ErrInvalidPromoCode = errors.New("invalid promo code")
)

// Catalog resolves template data for hydrating persisted cart rows
type Catalog interface {
	GetTemplate(ctx context.Context, id string) (*template.Template, error)
}

type storeState int

const (
	stateUninitialized storeState = iota
	stateLoading
	stateReady
	stateError
)

// Store owns the in-memory cart of one user session. Mutations update
// memory first, then confirm against the repository; a failed confirmation
// triggers a reconciliation reload so memory never stays silently diverged
// from the persisted rows. The mutex serializes operations per store, so
// two rapid adds of the same template cannot create two rows.
type Store struct {
	mu       sync.Mutex
	userID   uint // 0 means guest
	repo     Repository
	catalog  Catalog
	notifier notify.Sink
	log      *logrus.Logger

	state storeState
	items []LineItem
	promo *PromoState
}

// NewStore creates a cart store bound to one user. A userID of 0 denotes a
// guest session: reads yield an empty cart and mutations are rejected.
func NewStore(userID uint, repo Repository, catalog Catalog, notifier notify.Sink, log *logrus.Logger) *Store {
	if notifier == nil {
		notifier = notify.NopSink{}
	}
	return &Store{
		userID:   userID,
		repo:     repo,
		catalog:  catalog,
		notifier: notifier,
		log:      log,
		state:    stateUninitialized,
	}
}

// Fetch loads the user's persisted cart rows, hydrates each against the
// template catalog and replaces the in-memory items. Rows whose template can
// no longer be resolved are dropped rather than failing the whole load.
// Guests always get an empty ready cart regardless of prior state.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked(ctx)
}

func (s *Store) reloadLocked(ctx context.Context) error {
	if s.userID == 0 {
		s.items = nil
		s.state = stateReady
		return nil
	}

	s.state = stateLoading

	rows, err := s.repo.ListByUser(ctx, s.userID)
	if err != nil {
		s.items = nil
		s.state = stateError
		return fmt.Errorf("failed to load cart: %w", err)
	}

	items := make([]LineItem, 0, len(rows))
	for _, row := range rows {
		tpl, err := s.catalog.GetTemplate(ctx, row.TemplateID)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"user_id":     s.userID,
				"template_id": row.TemplateID,
			}).Warn("Dropping cart row with unresolvable template")
			continue
		}
		items = append(items, hydrate(row, tpl))
	}

	s.items = items
	s.state = stateReady
	return nil
}

// ensureLoadedLocked hydrates a store that has never fetched, or whose last
// load failed, so a fresh session mutates on top of persisted rows instead
// of assuming an empty cart. Without this a restart or identity change
// would reset persisted quantities through the upsert's insert path.
func (s *Store) ensureLoadedLocked(ctx context.Context) error {
	if s.state == stateReady {
		return nil
	}
	return s.reloadLocked(ctx)
}

func hydrate(row CartItem, tpl *template.Template) LineItem {
	item := LineItem{
		ID:       tpl.ID,
		Title:    tpl.Title,
		Image:    tpl.ImageURL,
		Price:    tpl.Price,
		Quantity: row.Quantity,
		Category: tpl.Category,
		IsPack:   tpl.IsPack,
		AddedAt:  row.CreatedAt,
	}
	if tpl.HasDiscount() {
		dp := tpl.EffectivePrice()
		item.DiscountPrice = &dp
	}
	return item
}

// Add puts a template in the cart. Adding a template that is already
// present increments its quantity instead of creating a second line.
func (s *Store) Add(ctx context.Context, templateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == 0 {
		return ErrNotAuthenticated
	}

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	if idx := s.indexOf(templateID); idx >= 0 {
		return s.setQuantityLocked(ctx, idx, s.items[idx].Quantity+1)
	}

	tpl, err := s.catalog.GetTemplate(ctx, templateID)
	if err != nil {
		return fmt.Errorf("failed to resolve template: %w", err)
	}

	item := hydrate(CartItem{Quantity: 1}, tpl)
	unit := item.EffectiveUnitPrice()

	// Optimistic: memory first, then confirm against persistence
	s.items = append(s.items, item)

	row := CartItem{
		UserID:       s.userID,
		TemplateID:   tpl.ID,
		Quantity:     1,
		PricePerItem: unit,
		TotalPrice:   Round2(unit),
	}
	if err := s.repo.Upsert(ctx, &row); err != nil {
		s.reconcileLocked(ctx)
		return fmt.Errorf("failed to add item to cart: %w", err)
	}

	s.items[len(s.items)-1].AddedAt = row.CreatedAt
	s.publish("success", fmt.Sprintf("%s added to cart", tpl.Title), map[string]interface{}{"template_id": tpl.ID})
	return nil
}

// UpdateQuantity sets the quantity of a cart line. A quantity below 1
// removes the line instead of persisting a zero-quantity row.
func (s *Store) UpdateQuantity(ctx context.Context, templateID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == 0 {
		return ErrNotAuthenticated
	}

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	idx := s.indexOf(templateID)
	if idx < 0 {
		return ErrItemNotFound
	}

	if quantity < 1 {
		return s.removeLocked(ctx, idx)
	}
	return s.setQuantityLocked(ctx, idx, quantity)
}

// Remove deletes a cart line
func (s *Store) Remove(ctx context.Context, templateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == 0 {
		return ErrNotAuthenticated
	}

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}

	idx := s.indexOf(templateID)
	if idx < 0 {
		return ErrItemNotFound
	}
	return s.removeLocked(ctx, idx)
}

// Clear empties the cart. Applied promo state is left untouched; the
// payable total clamps at zero anyway.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == 0 {
		return ErrNotAuthenticated
	}

	s.items = nil

	if err := s.repo.DeleteAll(ctx, s.userID); err != nil {
		s.reconcileLocked(ctx)
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	s.publish("success", "Cart cleared", nil)
	return nil
}

// ApplyPromo validates a promo code against the current subtotal and, on
// success, replaces any previously applied promo. The discount amount is
// frozen at application time; later cart changes do not re-derive it unless
// the caller re-applies the code. On an unknown code the prior promo state
// is left untouched.
func (s *Store) ApplyPromo(code string) (PromoResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subtotal := ComputeTotals(s.items).Subtotal
	result := EvaluatePromo(code, subtotal)
	if !result.IsValid {
		return result, ErrInvalidPromoCode
	}

	s.promo = &PromoState{Code: code, DiscountAmount: result.DiscountAmount}
	return result, nil
}

// RemovePromo discards the applied promo, if any
func (s *Store) RemovePromo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promo = nil
}

// Summary derives the full read surface from current items and promo state.
// Totals are never stored, only recomputed here.
func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := ComputeTotals(s.items)

	summary := Summary{
		Items:           append(make([]LineItem, 0, len(s.items)), s.items...),
		TotalItems:      totals.TotalItems,
		Subtotal:        totals.Subtotal,
		Discount:        totals.Discount,
		IsLoading:       s.state == stateLoading,
		IsAuthenticated: s.userID != 0,
	}

	if s.promo != nil {
		summary.PromoCode = s.promo.Code
		summary.PromoDiscount = s.promo.DiscountAmount
	}

	total := totals.Subtotal - summary.PromoDiscount
	if total < 0 {
		total = 0
	}
	summary.Total = Round2(total)
	return summary
}

// Loading reports whether a load or reconciliation is in flight
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateLoading
}

// UserID returns the owning user, 0 for guests
func (s *Store) UserID() uint {
	return s.userID
}

func (s *Store) indexOf(templateID string) int {
	for i := range s.items {
		if s.items[i].ID == templateID {
			return i
		}
	}
	return -1
}

func (s *Store) setQuantityLocked(ctx context.Context, idx, quantity int) error {
	item := &s.items[idx]
	prev := item.Quantity
	item.Quantity = quantity

	unit := item.EffectiveUnitPrice()
	if err := s.repo.UpdateQuantity(ctx, s.userID, item.ID, quantity, Round2(unit*float64(quantity))); err != nil {
		item.Quantity = prev
		s.reconcileLocked(ctx)
		return fmt.Errorf("failed to update quantity: %w", err)
	}
	return nil
}

func (s *Store) removeLocked(ctx context.Context, idx int) error {
	item := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)

	if err := s.repo.Delete(ctx, s.userID, item.ID); err != nil {
		s.reconcileLocked(ctx)
		return fmt.Errorf("failed to remove item from cart: %w", err)
	}

	s.publish("success", fmt.Sprintf("%s removed from cart", item.Title), map[string]interface{}{"template_id": item.ID})
	return nil
}

// reconcileLocked reloads authoritative state after a failed confirmation.
// A reload failure on top of the original failure leaves an error state the
// caller can retry via Fetch.
func (s *Store) reconcileLocked(ctx context.Context) {
	if err := s.reloadLocked(ctx); err != nil {
		s.log.WithError(err).WithField("user_id", s.userID).Error("Cart reconciliation failed")
	}
}

func (s *Store) publish(eventType, message string, data map[string]interface{}) {
	event := notify.Event{
		Type:    eventType,
		UserID:  s.userID,
		Message: message,
		Data:    data,
	}
	// Fire and forget, never part of control flow
	go func() {
		if err := s.notifier.Publish(context.Background(), event); err != nil {
			s.log.WithError(err).Debug("Notification publish failed")
		}
	}()
}

// Manager hands out one cart store per authenticated user and tears them
// down on logout. Guests get a fresh empty store that rejects mutations.
type Manager struct {
	mu     sync.Mutex
	stores map[uint]*Store

	repo     Repository
	catalog  Catalog
	notifier notify.Sink
	log      *logrus.Logger
}

// NewManager creates a cart manager with its injected collaborators
func NewManager(repo Repository, catalog Catalog, notifier notify.Sink, log *logrus.Logger) *Manager {
	return &Manager{
		stores:   make(map[uint]*Store),
		repo:     repo,
		catalog:  catalog,
		notifier: notifier,
		log:      log,
	}
}

// StoreFor returns the store owned by the given user, creating it on first
// use. userID 0 returns a transient guest store that is never cached, so
// guests never observe another session's items.
func (m *Manager) StoreFor(userID uint) *Store {
	if userID == 0 {
		return NewStore(0, m.repo, m.catalog, m.notifier, m.log)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.stores[userID]; ok {
		return store
	}
	store := NewStore(userID, m.repo, m.catalog, m.notifier, m.log)
	m.stores[userID] = store
	return store
}

// Release drops the cached store for a user, typically on logout. Persisted
// rows are untouched; the next StoreFor starts a fresh session.
func (m *Manager) Release(userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, userID)
}

// Close releases every cached store
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores = make(map[uint]*Store)
}
