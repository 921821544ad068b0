// internal/interfaces/http/handlers/cart_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/template-marketplace/internal/config"
	"github.com/your-org/template-marketplace/internal/domain/cart"
	"github.com/your-org/template-marketplace/internal/domain/purchase"
	"github.com/your-org/template-marketplace/internal/domain/template"
	"github.com/your-org/template-marketplace/internal/domain/user"
	"github.com/your-org/template-marketplace/internal/interfaces/http/middleware"
	"github.com/your-org/template-marketplace/internal/pkg/auth"
	"github.com/your-org/template-marketplace/internal/pkg/notify"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	engine     *gin.Engine
	cfg        *config.Config
	templates  *template.Service
	jwtManager *auth.JWTManager
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "Template Marketplace"},
		JWT: config.JWTConfig{
			Secret:             "test-secret-key-that-is-long-enough-123",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 2 * time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: 4},
	}
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&user.User{}, &template.Template{}, &template.Review{},
		&cart.CartItem{}, &purchase.Purchase{},
	))

	cfg := testConfig()

	log := logrus.New()
	log.SetOutput(io.Discard)

	templateService := template.NewService(db, nil, cfg)
	userService := user.NewService(db, cfg)
	cartManager := cart.NewManager(cart.NewGormRepository(db), templateService, notify.NopSink{}, log)
	purchaseService := purchase.NewService(db, notify.NopSink{}, log)

	cartHandler := NewCartHandler(cartManager, cfg)
	checkoutHandler := NewCheckoutHandler(purchaseService, cartManager, cfg)
	purchaseHandler := NewPurchaseHandler(purchaseService, userService, cfg)

	engine := gin.New()
	api := engine.Group("/api/v1")

	carts := api.Group("/cart")
	carts.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		carts.GET("", cartHandler.GetCart)
		carts.GET("/count", cartHandler.GetCartCount)
		carts.DELETE("", cartHandler.ClearCart)
		carts.POST("/items", cartHandler.AddToCart)
		carts.PUT("/items/:id", cartHandler.UpdateCartItem)
		carts.DELETE("/items/:id", cartHandler.RemoveCartItem)
		carts.POST("/promo", cartHandler.ApplyPromo)
		carts.DELETE("/promo", cartHandler.RemovePromo)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(cfg))
	{
		protected.POST("/checkout", checkoutHandler.Checkout)
		protected.GET("/purchases", purchaseHandler.GetPurchases)
	}

	return &testEnv{
		engine:     engine,
		cfg:        cfg,
		templates:  templateService,
		jwtManager: auth.NewJWTManager(cfg),
	}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) token(t *testing.T, userID uint) string {
	t.Helper()
	token, err := e.jwtManager.GenerateAccessToken(userID, "buyer@example.com", false)
	require.NoError(t, err)
	return token
}

func (e *testEnv) seedTemplate(t *testing.T, title string, price float64) string {
	t.Helper()
	tpl, err := e.templates.CreateTemplate(&template.TemplateCreateRequest{
		Title: title,
		Price: price,
	})
	require.NoError(t, err)
	return tpl.ID
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCartEndpoints_Guest(t *testing.T) {
	env := setupEnv(t)
	tplID := env.seedTemplate(t, "Guest Theme", 20.00)

	// Guests read an empty cart
	rec := env.request(t, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, false, data["is_authenticated"])

	// Guest mutations are rejected with a distinct signal
	rec = env.request(t, http.MethodPost, "/api/v1/cart/items", "", gin.H{"template_id": tplID})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "not_authenticated", body["code"])

	rec = env.request(t, http.MethodDelete, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartEndpoints_Flow(t *testing.T) {
	env := setupEnv(t)
	tplID := env.seedTemplate(t, "Flow Theme", 25.00)
	token := env.token(t, 1)

	// Add twice: one line, quantity 2
	rec := env.request(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{"template_id": tplID})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.request(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{"template_id": tplID})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total_items"])
	assert.InDelta(t, 50.00, data["subtotal"], 1e-9)
	assert.Len(t, data["items"], 1)

	rec = env.request(t, http.MethodGet, "/api/v1/cart/count", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	count := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), count["count"])

	// Quantity zero removes the line
	rec = env.request(t, http.MethodPut, "/api/v1/cart/items/"+tplID, token, gin.H{"quantity": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["total_items"])

	// Updating a missing item is a 404
	rec = env.request(t, http.MethodPut, "/api/v1/cart/items/"+tplID, token, gin.H{"quantity": 3})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartEndpoints_Promo(t *testing.T) {
	env := setupEnv(t)
	tplID := env.seedTemplate(t, "Promo Theme", 100.00)
	token := env.token(t, 1)

	rec := env.request(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{"template_id": tplID})
	require.Equal(t, http.StatusOK, rec.Code)

	// Unknown code
	rec = env.request(t, http.MethodPost, "/api/v1/cart/promo", token, gin.H{"code": "NOTREAL"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Valid code
	rec = env.request(t, http.MethodPost, "/api/v1/cart/promo", token, gin.H{"code": "WELCOME10"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "WELCOME10", data["promo_code"])
	assert.InDelta(t, 10.00, data["promo_discount"], 1e-9)
	assert.InDelta(t, 90.00, data["total"], 1e-9)

	// Remove it again
	rec = env.request(t, http.MethodDelete, "/api/v1/cart/promo", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeBody(t, rec)["data"].(map[string]interface{})
	assert.InDelta(t, 100.00, data["total"], 1e-9)
}

func TestCheckoutEndpoint(t *testing.T) {
	env := setupEnv(t)
	tplID := env.seedTemplate(t, "Checkout Theme", 40.00)
	token := env.token(t, 1)

	// Empty cart rejected
	rec := env.request(t, http.MethodPost, "/api/v1/checkout", token, gin.H{
		"cardholder_name": "Test Buyer",
		"payment_method":  "card",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodPost, "/api/v1/cart/items", token, gin.H{"template_id": tplID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodPost, "/api/v1/checkout", token, gin.H{
		"cardholder_name": "Test Buyer",
		"payment_method":  "card",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "completed", data["payment_status"])
	assert.InDelta(t, 40.00, data["total_amount"], 1e-9)

	// Cart is empty afterwards
	rec = env.request(t, http.MethodGet, "/api/v1/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cartData := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(0), cartData["total_items"])

	// And the purchase shows up in history
	rec = env.request(t, http.MethodGet, "/api/v1/purchases", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	purchases := decodeBody(t, rec)["data"].([]interface{})
	assert.Len(t, purchases, 1)

	// Checkout requires authentication
	rec = env.request(t, http.MethodPost, "/api/v1/checkout", "", gin.H{
		"cardholder_name": "Test Buyer",
		"payment_method":  "card",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
