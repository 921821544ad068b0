// internal/domain/cart/service_test.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/template-marketplace/internal/domain/template"
	"github.com/your-org/template-marketplace/internal/pkg/notify"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeCatalog struct {
	templates map[string]*template.Template
}

func (c *fakeCatalog) GetTemplate(ctx context.Context, id string) (*template.Template, error) {
	tpl, ok := c.templates[id]
	if !ok {
		return nil, fmt.Errorf("template not found")
	}
	return tpl, nil
}

// failingRepo wraps a real repository and fails selected operations
type failingRepo struct {
	Repository
	failDelete bool
	failUpdate bool
}

func (r *failingRepo) Delete(ctx context.Context, userID uint, templateID string) error {
	if r.failDelete {
		return fmt.Errorf("simulated persistence failure")
	}
	return r.Repository.Delete(ctx, userID, templateID)
}

func (r *failingRepo) UpdateQuantity(ctx context.Context, userID uint, templateID string, quantity int, totalPrice float64) error {
	if r.failUpdate {
		return fmt.Errorf("simulated persistence failure")
	}
	return r.Repository.UpdateQuantity(ctx, userID, templateID, quantity, totalPrice)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func setupCartEnv(t *testing.T) (*GormRepository, *fakeCatalog) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&CartItem{}))

	catalog := &fakeCatalog{templates: map[string]*template.Template{
		"tpl-basic": {ID: "tpl-basic", Title: "Basic Landing", Price: 25.00},
		"tpl-deal":  {ID: "tpl-deal", Title: "Deal Pack", Price: 100.00, DiscountPercentage: discountPtr(20), IsPack: true},
	}}

	return NewGormRepository(db), catalog
}

func newTestStore(t *testing.T, userID uint) (*Store, *GormRepository, *fakeCatalog) {
	repo, catalog := setupCartEnv(t)
	return NewStore(userID, repo, catalog, notify.NopSink{}, testLogger()), repo, catalog
}

func TestStore_GuestBehavior(t *testing.T) {
	store, _, _ := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Fetch(ctx))
	assert.Empty(t, store.Summary().Items)

	assert.ErrorIs(t, store.Add(ctx, "tpl-basic"), ErrNotAuthenticated)
	assert.ErrorIs(t, store.Remove(ctx, "tpl-basic"), ErrNotAuthenticated)
	assert.ErrorIs(t, store.UpdateQuantity(ctx, "tpl-basic", 2), ErrNotAuthenticated)
	assert.ErrorIs(t, store.Clear(ctx), ErrNotAuthenticated)
}

func TestStore_AddSameTemplateTwice(t *testing.T) {
	store, repo, _ := newTestStore(t, 1)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "tpl-basic"))
	require.NoError(t, store.Add(ctx, "tpl-basic"))

	summary := store.Summary()
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 2, summary.Items[0].Quantity)

	// Exactly one persisted row per (user, template)
	rows, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Quantity)
	assert.InDelta(t, 50.00, rows[0].TotalPrice, 1e-9)
}

func TestStore_UpdateQuantityZeroRemoves(t *testing.T) {
	store, _, _ := newTestStore(t, 1)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "tpl-basic"))
	require.NoError(t, store.UpdateQuantity(ctx, "tpl-basic", 0))

	summary := store.Summary()
	assert.Empty(t, summary.Items)
	assert.Equal(t, 0, summary.TotalItems)

	assert.ErrorIs(t, store.UpdateQuantity(ctx, "tpl-basic", 1), ErrItemNotFound)
}

func TestStore_RemoveDoesNotResurrect(t *testing.T) {
	store, _, _ := newTestStore(t, 1)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "tpl-basic"))
	require.NoError(t, store.Add(ctx, "tpl-deal"))
	require.NoError(t, store.Remove(ctx, "tpl-basic"))

	// Reconciliation fetch must not bring the removed item back
	require.NoError(t, store.Fetch(ctx))
	summary := store.Summary()
	require.Len(t, summary.Items, 1)
	assert.Equal(t, "tpl-deal", summary.Items[0].ID)
}

func TestStore_HydrationDropsUnresolvableTemplates(t *testing.T) {
	store, _, catalog := newTestStore(t, 1)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "tpl-basic"))
	require.NoError(t, store.Add(ctx, "tpl-deal"))

	// Template disappears from the catalog; its row is silently dropped
	delete(catalog.templates, "tpl-basic")

	require.NoError(t, store.Fetch(ctx))
	summary := store.Summary()
	require.Len(t, summary.Items, 1)
	assert.Equal(t, "tpl-deal", summary.Items[0].ID)
}

func TestStore_EndToEndTotals(t *testing.T) {
	store, _, catalog := newTestStore(t, 1)
	ctx := context.Background()

	catalog.templates["tpl-promo"] = &template.Template{
		ID: "tpl-promo", Title: "Promo Theme", Price: 100.00, DiscountPercentage: discountPtr(20),
	}

	require.NoError(t, store.Add(ctx, "tpl-promo"))
	require.NoError(t, store.UpdateQuantity(ctx, "tpl-promo", 2))

	summary := store.Summary()
	assert.Equal(t, 2, summary.TotalItems)
	assert.InDelta(t, 160.00, summary.Subtotal, 1e-9)
	assert.InDelta(t, 40.00, summary.Discount, 1e-9)

	result, err := store.ApplyPromo("SAVE20")
	require.NoError(t, err)
	assert.InDelta(t, 32.00, result.DiscountAmount, 1e-9)

	summary = store.Summary()
	assert.Equal(t, "SAVE20", summary.PromoCode)
	assert.InDelta(t, 32.00, summary.PromoDiscount, 1e-9)
	assert.InDelta(t, 128.00, summary.Total, 1e-9)
}

func TestStore_InvalidPromoLeavesPriorState(t *testing.T) {
	store, _, _ := newTestStore(t, 1)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "tpl-basic"))

	_, err := store.ApplyPromo("WELCOME10")
	require.NoError(t, err)

	_, err = store.ApplyPromo("NOTREAL")
	assert.ErrorIs(t, err, ErrInvalidPromoCode)

	summary := store.Summary()
	assert.Equal(t, "WELCOME10", summary.PromoCode)
	assert.InDelta(t, 2.50, summary.PromoDiscount, 1e-9)
}

func TestStore_PromoFrozenAtApplyTime(t *testing.T) {
	store, _, _ := newTestStore(t, 1)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "tpl-basic"))
	_, err := store.ApplyPromo("WELCOME10")
	require.NoError(t, err)
	assert.InDelta(t, 2.50, store.Summary().PromoDiscount, 1e-9)

	// Growing the cart afterwards does not re-derive the discount
	require.NoError(t, store.UpdateQuantity(ctx, "tpl-basic", 4))
	assert.InDelta(t, 2.50, store.Summary().PromoDiscount, 1e-9)

	// Re-applying recomputes against the new subtotal
	_, err = store.ApplyPromo("WELCOME10")
	require.NoError(t, err)
	assert.InDelta(t, 10.00, store.Summary().PromoDiscount, 1e-9)
}

func TestStore_TotalClampsAtZero(t *testing.T) {
	store, _, _ := newTestStore(t, 1)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "tpl-basic"))
	_, err := store.ApplyPromo("TEMPLATE50")
	require.NoError(t, err)

	// Shrink the cart below the frozen discount
	require.NoError(t, store.Clear(ctx))

	summary := store.Summary()
	assert.InDelta(t, 0.0, summary.Subtotal, 1e-9)
	assert.InDelta(t, 12.50, summary.PromoDiscount, 1e-9)
	assert.Equal(t, 0.0, summary.Total)
}

func TestStore_PersistFailureReconciles(t *testing.T) {
	repo, catalog := setupCartEnv(t)
	flaky := &failingRepo{Repository: repo}
	store := NewStore(1, flaky, catalog, notify.NopSink{}, testLogger())
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "tpl-basic"))

	flaky.failDelete = true
	err := store.Remove(ctx, "tpl-basic")
	require.Error(t, err)

	// The failed delete reloaded authoritative state: item is still there
	summary := store.Summary()
	require.Len(t, summary.Items, 1)
	assert.Equal(t, "tpl-basic", summary.Items[0].ID)

	flaky.failDelete = false
	require.NoError(t, store.Remove(ctx, "tpl-basic"))
	assert.Empty(t, store.Summary().Items)
}

func TestStore_FreshSessionSeesPersistedRows(t *testing.T) {
	repo, catalog := setupCartEnv(t)
	ctx := context.Background()

	first := NewStore(1, repo, catalog, notify.NopSink{}, testLogger())
	require.NoError(t, first.Add(ctx, "tpl-basic"))
	require.NoError(t, first.UpdateQuantity(ctx, "tpl-basic", 3))

	// A brand-new session hydrates before mutating, so adding a template
	// that already has a row increments its quantity instead of resetting
	// it through the upsert's insert path
	fresh := NewStore(1, repo, catalog, notify.NopSink{}, testLogger())
	require.NoError(t, fresh.Add(ctx, "tpl-basic"))

	rows, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Quantity)

	// Updates and removes resolve rows that only exist remotely
	another := NewStore(1, repo, catalog, notify.NopSink{}, testLogger())
	require.NoError(t, another.UpdateQuantity(ctx, "tpl-basic", 2))
	require.NoError(t, another.Remove(ctx, "tpl-basic"))

	rows, err = repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStore_SummaryItemsNeverNil(t *testing.T) {
	store, _, _ := newTestStore(t, 1)

	data, err := json.Marshal(store.Summary())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"items":[]`)
}

func TestManager_StorePerUser(t *testing.T) {
	repo, catalog := setupCartEnv(t)
	mgr := NewManager(repo, catalog, notify.NopSink{}, testLogger())
	ctx := context.Background()

	alice := mgr.StoreFor(1)
	require.NoError(t, alice.Add(ctx, "tpl-basic"))

	// Same user gets the same store
	assert.Same(t, alice, mgr.StoreFor(1))

	// Another user gets an independent cart
	bob := mgr.StoreFor(2)
	require.NoError(t, bob.Fetch(ctx))
	assert.Empty(t, bob.Summary().Items)

	// Guests never share a cached store
	guest := mgr.StoreFor(0)
	assert.NotSame(t, guest, mgr.StoreFor(0))

	// Release drops the session; persisted rows survive into the next one
	mgr.Release(1)
	fresh := mgr.StoreFor(1)
	assert.NotSame(t, alice, fresh)
	require.NoError(t, fresh.Fetch(ctx))
	assert.Len(t, fresh.Summary().Items, 1)
}
