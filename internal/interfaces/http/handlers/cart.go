// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/template-marketplace/internal/config"
	"github.com/your-org/template-marketplace/internal/domain/cart"
	"github.com/your-org/template-marketplace/internal/domain/template"
	"github.com/your-org/template-marketplace/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartManager *cart.Manager
	config      *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartManager *cart.Manager, cfg *config.Config) *CartHandler {
	return &CartHandler{
		cartManager: cartManager,
		config:      cfg,
	}
}

// AddToCartRequest represents the add-to-cart payload
type AddToCartRequest struct {
	TemplateID string `json:"template_id" binding:"required"`
}

// UpdateQuantityRequest represents the quantity update payload
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// ApplyPromoRequest represents the promo application payload
type ApplyPromoRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *CartHandler) store(c *gin.Context) *cart.Store {
	userID, _ := middleware.GetUserIDFromContext(c)
	return h.cartManager.StoreFor(userID)
}

// cartError maps store errors to HTTP responses
func cartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cart.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Please sign in to manage your cart",
			"code":  "not_authenticated",
		})
	case errors.Is(err, cart.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Item not found in cart",
		})
	case errors.Is(err, template.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Template not found",
		})
	case errors.Is(err, cart.ErrInvalidPromoCode):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid promo code",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
	}
}

// GetCart handles GET /cart. It reloads persisted rows against the live
// catalog so prices always reflect current template data.
func (h *CartHandler) GetCart(c *gin.Context) {
	store := h.store(c)

	if err := store.Fetch(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to load cart, please retry",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    store.Summary(),
	})
}

// GetCartCount handles GET /cart/count, a lightweight badge endpoint
func (h *CartHandler) GetCartCount(c *gin.Context) {
	store := h.store(c)

	if err := store.Fetch(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to load cart, please retry",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved successfully",
		"data":    gin.H{"count": store.Summary().TotalItems},
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	store := h.store(c)
	if err := store.Add(c.Request.Context(), req.TemplateID); err != nil {
		cartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    store.Summary(),
	})
}

// UpdateCartItem handles PUT /cart/items/:id. A quantity below 1 removes
// the item.
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	store := h.store(c)
	if err := store.UpdateQuantity(c.Request.Context(), c.Param("id"), *req.Quantity); err != nil {
		cartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart updated successfully",
		"data":    store.Summary(),
	})
}

// RemoveCartItem handles DELETE /cart/items/:id
func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	store := h.store(c)
	if err := store.Remove(c.Request.Context(), c.Param("id")); err != nil {
		cartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    store.Summary(),
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	store := h.store(c)
	if err := store.Clear(c.Request.Context()); err != nil {
		cartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
		"data":    store.Summary(),
	})
}

// ApplyPromo handles POST /cart/promo
func (h *CartHandler) ApplyPromo(c *gin.Context) {
	var req ApplyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	store := h.store(c)
	result, err := store.ApplyPromo(req.Code)
	if err != nil {
		cartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Promo code applied successfully",
		"data": gin.H{
			"promo":   result,
			"summary": store.Summary(),
		},
	})
}

// RemovePromo handles DELETE /cart/promo
func (h *CartHandler) RemovePromo(c *gin.Context) {
	store := h.store(c)
	store.RemovePromo()

	c.JSON(http.StatusOK, gin.H{
		"message": "Promo code removed successfully",
		"data":    store.Summary(),
	})
}
