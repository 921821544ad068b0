// internal/domain/template/service_test.go
package template

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/template-marketplace/internal/config"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Template{}, &Review{}))

	cfg := &config.Config{}
	return NewService(db, nil, cfg)
}

func floatPtr(v float64) *float64 { return &v }

func TestEffectivePrice(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		discount *float64
		want     float64
	}{
		{"no discount", 40.00, nil, 40.00},
		{"zero discount", 40.00, floatPtr(0), 40.00},
		{"ten percent", 10.00, floatPtr(10), 9.00},
		{"rounds to cents", 19.99, floatPtr(15), 16.99},
		{"full discount", 128.00, floatPtr(100), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := Template{Price: tt.price, DiscountPercentage: tt.discount}
			assert.InDelta(t, tt.want, tpl.EffectivePrice(), 1e-9)
		})
	}
}

func TestCreateTemplate(t *testing.T) {
	svc := setupTestService(t)

	tpl, err := svc.CreateTemplate(&TemplateCreateRequest{
		Title:    "Portfolio Pro",
		Price:    32.00,
		Category: "portfolio",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tpl.ID)
	assert.Equal(t, "portfolio-pro", tpl.Slug)
	assert.True(t, tpl.IsActive)

	// Duplicate titles get a suffixed slug instead of an error
	dup, err := svc.CreateTemplate(&TemplateCreateRequest{
		Title: "Portfolio Pro",
		Price: 18.00,
	})
	require.NoError(t, err)
	assert.NotEqual(t, tpl.Slug, dup.Slug)
	assert.Contains(t, dup.Slug, "portfolio-pro-")
}

func TestCreateTemplate_Validation(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.CreateTemplate(&TemplateCreateRequest{Title: "Bad", Price: -1})
	assert.Error(t, err)

	_, err = svc.CreateTemplate(&TemplateCreateRequest{
		Title:              "Bad Discount",
		Price:              10,
		DiscountPercentage: floatPtr(150),
	})
	assert.Error(t, err)
}

func TestGetTemplate(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTemplate(&TemplateCreateRequest{
		Title: "Landing Page Kit",
		Price: 24.50,
	})
	require.NoError(t, err)

	got, err := svc.GetTemplate(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)

	bySlug, err := svc.GetTemplateBySlug(ctx, "landing-page-kit")
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySlug.ID)

	_, err = svc.GetTemplate(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestGetTemplates_Filters(t *testing.T) {
	svc := setupTestService(t)

	for _, seed := range []TemplateCreateRequest{
		{Title: "Agency One", Price: 40, Category: "agency"},
		{Title: "Agency Two", Price: 60, Category: "agency"},
		{Title: "Blog Starter", Price: 15, Category: "blog"},
	} {
		_, err := svc.CreateTemplate(&seed)
		require.NoError(t, err)
	}

	resp, err := svc.GetTemplates(&TemplateListRequest{Page: 1, Limit: 10, Category: "agency"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Pagination.Total)

	resp, err = svc.GetTemplates(&TemplateListRequest{Page: 1, Limit: 10, MinPrice: 50})
	require.NoError(t, err)
	assert.Len(t, resp.Templates, 1)
	assert.Equal(t, "Agency Two", resp.Templates[0].Title)

	resp, err = svc.GetTemplates(&TemplateListRequest{Page: 1, Limit: 2, SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Len(t, resp.Templates, 2)
	assert.Equal(t, "Blog Starter", resp.Templates[0].Title)
	assert.True(t, resp.Pagination.HasNext)
}

func TestReviews(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	tpl, err := svc.CreateTemplate(&TemplateCreateRequest{Title: "Shop Theme", Price: 55})
	require.NoError(t, err)

	review, err := svc.CreateReview(ctx, tpl.ID, 1, &ReviewCreateRequest{
		Rating:  5,
		Title:   "Great theme",
		Comment: "Easy to customize",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)

	// One review per user per template
	_, err = svc.CreateReview(ctx, tpl.ID, 1, &ReviewCreateRequest{Rating: 4})
	assert.Error(t, err)

	reviews, err := svc.GetReviews(tpl.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	// Single-template reads carry the approved review count
	fetched, err := svc.GetTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetched.ReviewCount)

	bySlug, err := svc.GetTemplateBySlug(ctx, tpl.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(1), bySlug.ReviewCount)
}
