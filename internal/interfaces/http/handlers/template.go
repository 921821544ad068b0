// internal/interfaces/http/handlers/template.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/template-marketplace/internal/config"
	"github.com/your-org/template-marketplace/internal/domain/template"
	"github.com/your-org/template-marketplace/internal/interfaces/http/middleware"
)

// TemplateHandler handles template catalog endpoints
type TemplateHandler struct {
	templateService *template.Service
	config          *config.Config
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templateService *template.Service, cfg *config.Config) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
		config:          cfg,
	}
}

// GetTemplates handles GET /templates
func (h *TemplateHandler) GetTemplates(c *gin.Context) {
	var req template.TemplateListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	response, err := h.templateService.GetTemplates(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve templates",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Templates retrieved successfully",
		"data":    response,
	})
}

// GetTemplate handles GET /templates/:id where :id is a template ID or slug
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	idOrSlug := c.Param("id")

	var tpl *template.Template
	var err error
	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		tpl, err = h.templateService.GetTemplate(c.Request.Context(), idOrSlug)
	} else {
		tpl, err = h.templateService.GetTemplateBySlug(c.Request.Context(), idOrSlug)
	}

	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Template not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Template retrieved successfully",
		"data":    tpl,
	})
}

// GetTemplateBySlug handles GET /templates/slug/:slug
func (h *TemplateHandler) GetTemplateBySlug(c *gin.Context) {
	tpl, err := h.templateService.GetTemplateBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Template not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Template retrieved successfully",
		"data":    tpl,
	})
}

// CreateTemplate handles POST /admin/templates
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req template.TemplateCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	tpl, err := h.templateService.CreateTemplate(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Template created successfully",
		"data":    tpl,
	})
}

// GetReviews handles GET /templates/:id/reviews
func (h *TemplateHandler) GetReviews(c *gin.Context) {
	templateID := c.Param("id")

	reviews, err := h.templateService.GetReviews(templateID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve reviews",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reviews retrieved successfully",
		"data":    reviews,
	})
}

// CreateReview handles POST /templates/:id/reviews
func (h *TemplateHandler) CreateReview(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	templateID := c.Param("id")

	var req template.ReviewCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	review, err := h.templateService.CreateReview(c.Request.Context(), templateID, userID, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Review created successfully",
		"data":    review,
	})
}
