// internal/interfaces/http/handlers/purchase.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/template-marketplace/internal/config"
	"github.com/your-org/template-marketplace/internal/domain/purchase"
	"github.com/your-org/template-marketplace/internal/domain/user"
	"github.com/your-org/template-marketplace/internal/interfaces/http/middleware"
	"github.com/your-org/template-marketplace/internal/pkg/pdf"
)

// PurchaseHandler handles purchase history endpoints
type PurchaseHandler struct {
	purchaseService *purchase.Service
	userService     *user.Service
	pdfService      *pdf.Service
	config          *config.Config
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(purchaseService *purchase.Service, userService *user.Service, cfg *config.Config) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
		userService:     userService,
		pdfService:      pdf.NewService(cfg),
		config:          cfg,
	}
}

// GetPurchases handles GET /purchases
func (h *PurchaseHandler) GetPurchases(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	purchases, err := h.purchaseService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve purchase history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Purchase history retrieved successfully",
		"data":    purchases,
	})
}

// GetPurchase handles GET /purchases/:id
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	p, err := h.purchaseService.GetByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Purchase not found",
		})
		return
	}

	items, err := p.DecodeItems()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to decode purchase items",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Purchase retrieved successfully",
		"data": gin.H{
			"purchase": p,
			"items":    items,
		},
	})
}

// GetReceipt handles GET /purchases/:id/receipt, streaming a PDF receipt
func (h *PurchaseHandler) GetReceipt(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	p, err := h.purchaseService.GetByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Purchase not found",
		})
		return
	}

	buyerName := "Customer"
	if profile, err := h.userService.GetProfile(userID); err == nil {
		if name := profile.FullName(); name != "" {
			buyerName = name
		}
	}

	pdfBuffer, err := h.pdfService.GenerateReceipt(p, buyerName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate receipt",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", p.PaymentRef))
	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}
