// internal/domain/template/service.go
package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/template-marketplace/internal/config"
	"gorm.io/gorm"
)

// ErrTemplateNotFound signals a lookup for a missing or inactive template
var ErrTemplateNotFound = errors.New("template not found")

// Service handles template catalog business logic
type Service struct {
	db     *gorm.DB
	cache  *redis.Client
	config *config.Config
}

// NewService creates a new template service
func NewService(db *gorm.DB, cache *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		cache:  cache,
		config: cfg,
	}
}

// TemplateListRequest represents catalog list query parameters
type TemplateListRequest struct {
	Page       int     `form:"page,default=1"`
	Limit      int     `form:"limit,default=20"`
	Category   string  `form:"category"`
	Search     string  `form:"search"`
	SortBy     string  `form:"sort_by,default=created_at"`
	SortOrder  string  `form:"sort_order,default=desc"`
	MinPrice   float64 `form:"min_price"`
	MaxPrice   float64 `form:"max_price"`
	IsPack     *bool   `form:"is_pack"`
	IsFeatured *bool   `form:"is_featured"`
}

// TemplateCreateRequest represents template creation data
type TemplateCreateRequest struct {
	Title              string   `json:"title" binding:"required"`
	Description        string   `json:"description"`
	Price              float64  `json:"price" binding:"required"`
	DiscountPercentage *float64 `json:"discount_percentage"`
	ImageURL           string   `json:"image_url"`
	PreviewURL         string   `json:"preview_url"`
	Category           string   `json:"category"`
	Tags               string   `json:"tags"`
	IsPack             bool     `json:"is_pack"`
	IsFeatured         bool     `json:"is_featured"`
}

// ReviewCreateRequest represents review submission data
type ReviewCreateRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

// TemplateResponse represents a catalog page with pagination
type TemplateResponse struct {
	Templates  []Template `json:"templates"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// GetTemplates retrieves templates with filtering and pagination
func (s *Service) GetTemplates(req *TemplateListRequest) (*TemplateResponse, error) {
	var templates []Template
	var total int64

	query := s.db.Model(&Template{}).Where("is_active = ?", true)

	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}

	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?", search, search, search)
	}

	if req.MinPrice > 0 {
		query = query.Where("price >= ?", req.MinPrice)
	}

	if req.MaxPrice > 0 {
		query = query.Where("price <= ?", req.MaxPrice)
	}

	if req.IsPack != nil {
		query = query.Where("is_pack = ?", *req.IsPack)
	}

	if req.IsFeatured != nil {
		query = query.Where("is_featured = ?", *req.IsFeatured)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count templates: %w", err)
	}

	orderClause := s.buildOrderClause(req.SortBy, req.SortOrder)
	query = query.Order(orderClause)

	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve templates: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	pagination := Pagination{
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    req.Page < totalPages,
		HasPrev:    req.Page > 1,
	}

	return &TemplateResponse{
		Templates:  templates,
		Pagination: pagination,
	}, nil
}

// GetTemplate retrieves a single template by ID, consulting the cache first
func (s *Service) GetTemplate(ctx context.Context, id string) (*Template, error) {
	if cached := s.fromCache(ctx, id); cached != nil {
		s.attachReviewCount(cached)
		return cached, nil
	}

	var tpl Template
	result := s.db.Where("id = ? AND is_active = ?", id, true).First(&tpl)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to retrieve template: %w", result.Error)
	}

	s.attachReviewCount(&tpl)
	s.toCache(ctx, &tpl)
	return &tpl, nil
}

// GetTemplateBySlug retrieves a single template by slug
func (s *Service) GetTemplateBySlug(ctx context.Context, slug string) (*Template, error) {
	var tpl Template
	result := s.db.Where("slug = ? AND is_active = ?", slug, true).First(&tpl)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to retrieve template: %w", result.Error)
	}

	s.attachReviewCount(&tpl)
	s.toCache(ctx, &tpl)
	return &tpl, nil
}

// CreateTemplate creates a new template
func (s *Service) CreateTemplate(req *TemplateCreateRequest) (*Template, error) {
	if req.Price < 0 {
		return nil, fmt.Errorf("price must not be negative")
	}
	if req.DiscountPercentage != nil && (*req.DiscountPercentage < 0 || *req.DiscountPercentage > 100) {
		return nil, fmt.Errorf("discount percentage must be between 0 and 100")
	}

	slug := s.generateSlug(req.Title)

	var existing Template
	if result := s.db.Where("slug = ?", slug).First(&existing); result.Error == nil {
		slug = fmt.Sprintf("%s-%s", slug, uuid.New().String()[:8])
	}

	tpl := Template{
		ID:                 uuid.New().String(),
		Slug:               slug,
		Title:              req.Title,
		Description:        req.Description,
		Price:              req.Price,
		DiscountPercentage: req.DiscountPercentage,
		ImageURL:           req.ImageURL,
		PreviewURL:         req.PreviewURL,
		Category:           req.Category,
		Tags:               req.Tags,
		IsPack:             req.IsPack,
		IsActive:           true,
		IsFeatured:         req.IsFeatured,
	}

	if err := s.db.Create(&tpl).Error; err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	return &tpl, nil
}

// CreateReview creates a review for a template
func (s *Service) CreateReview(ctx context.Context, templateID string, userID uint, req *ReviewCreateRequest) (*Review, error) {
	if _, err := s.GetTemplate(ctx, templateID); err != nil {
		return nil, err
	}

	var existing Review
	if result := s.db.Where("template_id = ? AND user_id = ?", templateID, userID).First(&existing); result.Error == nil {
		return nil, fmt.Errorf("you have already reviewed this template")
	}

	review := Review{
		TemplateID: templateID,
		UserID:     userID,
		Rating:     req.Rating,
		Title:      req.Title,
		Comment:    req.Comment,
		IsApproved: true,
	}

	if err := s.db.Create(&review).Error; err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	return &review, nil
}

// GetReviews retrieves approved reviews for a template
func (s *Service) GetReviews(templateID string) ([]Review, error) {
	var reviews []Review
	if err := s.db.
		Where("template_id = ? AND is_approved = ?", templateID, true).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve reviews: %w", err)
	}
	return reviews, nil
}

// attachReviewCount recounts approved reviews on every single-template
// read, cache hits included, so the count never goes stale with the cached
// template body.
func (s *Service) attachReviewCount(tpl *Template) {
	var count int64
	if err := s.db.Model(&Review{}).
		Where("template_id = ? AND is_approved = ?", tpl.ID, true).
		Count(&count).Error; err != nil {
		return
	}
	tpl.ReviewCount = count
}

func (s *Service) cacheKey(id string) string {
	return fmt.Sprintf("template:%s", id)
}

func (s *Service) fromCache(ctx context.Context, id string) *Template {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, s.cacheKey(id)).Bytes()
	if err != nil {
		return nil
	}
	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil
	}
	return &tpl
}

func (s *Service) toCache(ctx context.Context, tpl *Template) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(tpl)
	if err != nil {
		return
	}
	ttl := s.config.Catalog.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	// Cache failures are non-fatal, the database stays authoritative
	s.cache.Set(ctx, s.cacheKey(tpl.ID), data, ttl)
}

func (s *Service) buildOrderClause(sortBy, sortOrder string) string {
	allowedSortFields := map[string]bool{
		"title":      true,
		"price":      true,
		"category":   true,
		"created_at": true,
		"updated_at": true,
	}

	if !allowedSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}

func (s *Service) generateSlug(title string) string {
	slug := strings.ToLower(title)
	slug = strings.ReplaceAll(slug, " ", "-")

	var result strings.Builder
	for _, char := range slug {
		if (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9') || char == '-' {
			result.WriteRune(char)
		}
	}

	slug = result.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}
