// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/template-marketplace/internal/config"
	"github.com/your-org/template-marketplace/internal/domain/cart"
	"github.com/your-org/template-marketplace/internal/domain/purchase"
	"github.com/your-org/template-marketplace/internal/interfaces/http/middleware"
)

// CheckoutHandler handles the simulated payment flow
type CheckoutHandler struct {
	purchaseService *purchase.Service
	cartManager     *cart.Manager
	config          *config.Config
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(purchaseService *purchase.Service, cartManager *cart.Manager, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		purchaseService: purchaseService,
		cartManager:     cartManager,
		config:          cfg,
	}
}

// Checkout handles POST /checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req purchase.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	store := h.cartManager.StoreFor(userID)

	// Work from fresh persisted state, not a possibly stale session
	if err := store.Fetch(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to load cart, please retry",
		})
		return
	}

	p, err := h.purchaseService.CreateFromCart(c.Request.Context(), store, &req)
	if err != nil {
		if errors.Is(err, purchase.ErrEmptyCart) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Cannot checkout with an empty cart",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Checkout failed",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Purchase completed successfully",
		"data":    p,
	})
}
