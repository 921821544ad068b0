// internal/domain/user/service.go
package user

import (
	"fmt"
	"time"

	"github.com/your-org/template-marketplace/internal/config"
	"github.com/your-org/template-marketplace/internal/pkg/auth"
	"gorm.io/gorm"
)

// Service handles user business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg.Security.BcryptCost),
		jwtManager:      auth.NewJWTManager(cfg),
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FirstName       string `json:"first_name" binding:"required"`
	LastName        string `json:"last_name" binding:"required"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Register creates a new user account
func (s *Service) Register(req *RegisterRequest) (*AuthResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, fmt.Errorf("passwords do not match")
	}

	var existingUser User
	result := s.db.Where("email = ?", req.Email).First(&existingUser)
	if result.Error == nil {
		return nil, fmt.Errorf("user with this email already exists")
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{
		Email:     req.Email,
		Password:  hashedPassword,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsActive:  true,
		IsAdmin:   false,
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueTokens(&user)
}

// Login authenticates a user
func (s *Service) Login(req *LoginRequest) (*AuthResponse, error) {
	var user User
	result := s.db.Where("email = ? AND is_active = ?", req.Email, true).First(&user)
	if result.Error != nil {
		return nil, fmt.Errorf("invalid email or password")
	}

	if err := s.passwordManager.ComparePassword(user.Password, req.Password); err != nil {
		return nil, fmt.Errorf("invalid email or password")
	}

	return s.issueTokens(&user)
}

// RefreshToken exchanges a valid refresh token for a new access token.
// With rotation enabled the refresh token is replaced too; otherwise the
// presented one stays valid until it expires.
func (s *Service) RefreshToken(refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	var user User
	result := s.db.Where("id = ? AND is_active = ?", claims.UserID, true).First(&user)
	if result.Error != nil {
		return nil, fmt.Errorf("user not found or inactive")
	}

	response, err := s.issueTokens(&user)
	if err != nil {
		return nil, err
	}
	if !s.config.JWT.RefreshTokenRotation {
		response.RefreshToken = refreshToken
	}
	return response, nil
}

func (s *Service) issueTokens(user *User) (*AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	s.db.Model(user).Update("last_login_at", now)

	user.Password = ""

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.JWT.AccessTokenExpiry.Seconds()),
	}, nil
}

// GetProfile retrieves a user's profile
func (s *Service) GetProfile(userID uint) (*User, error) {
	var user User
	result := s.db.Where("id = ?", userID).First(&user)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", result.Error)
	}

	user.Password = ""
	return &user, nil
}

// UpdateProfile updates allowed profile fields
func (s *Service) UpdateProfile(userID uint, updates map[string]interface{}) (*User, error) {
	allowedFields := map[string]bool{
		"first_name": true,
		"last_name":  true,
		"avatar":     true,
	}

	filtered := make(map[string]interface{})
	for key, value := range updates {
		if allowedFields[key] {
			filtered[key] = value
		}
	}

	if len(filtered) == 0 {
		return nil, fmt.Errorf("no valid fields to update")
	}

	if err := s.db.Model(&User{}).Where("id = ?", userID).Updates(filtered).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.GetProfile(userID)
}

// ChangePassword changes a user's password after verifying the current one
func (s *Service) ChangePassword(userID uint, currentPassword, newPassword string) error {
	var user User
	if result := s.db.Where("id = ?", userID).First(&user); result.Error != nil {
		return fmt.Errorf("user not found")
	}

	if err := s.passwordManager.ComparePassword(user.Password, currentPassword); err != nil {
		return fmt.Errorf("current password is incorrect")
	}

	hashedPassword, err := s.passwordManager.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Model(&user).Update("password", hashedPassword).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
