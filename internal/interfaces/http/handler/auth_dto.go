package handler

import (
	"time"

	"github.com/google/uuid"
	appidentity "github.com/rentnest/backend/internal/application/identity"
)

// =====================
// Auth Request DTOs
// =====================

// RegisterRequest represents the request body for sign-up
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255" example:"rita@example.com"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	FullName string `json:"full_name" binding:"required,max=200" example:"Rita Renter"`
	Role     string `json:"role" binding:"omitempty,oneof=renter landlord agent" example:"renter"`
	Phone    string `json:"phone" binding:"omitempty,max=30"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"rita@example.com"`
	Password string `json:"password" binding:"required,max=128"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest represents the request body for password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// UpdateProfileRequest represents the editable profile fields
type UpdateProfileRequest struct {
	FullName  string `json:"full_name" binding:"required,max=200"`
	Phone     string `json:"phone" binding:"omitempty,max=30"`
	Bio       string `json:"bio" binding:"omitempty,max=2000"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url,max=500"`
}

// =====================
// Auth Response DTOs
// =====================

// TokenResponse represents the token data in auth responses
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type" example:"Bearer"`
}

// ProfileResponse represents a user profile
type ProfileResponse struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	FullName        string     `json:"full_name"`
	Phone           string     `json:"phone,omitempty"`
	AvatarURL       string     `json:"avatar_url,omitempty"`
	Bio             string     `json:"bio,omitempty"`
	Role            string     `json:"role" example:"renter"`
	IsVerified      bool       `json:"is_verified"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	LastLoginDevice string     `json:"last_login_device,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AuthResponse represents the response body for register, login and refresh
type AuthResponse struct {
	Token TokenResponse   `json:"token"`
	User  ProfileResponse `json:"user"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

func toProfileResponse(p appidentity.ProfileResult) ProfileResponse {
	return ProfileResponse{
		ID:              p.ID,
		Email:           p.Email,
		FullName:        p.FullName,
		Phone:           p.Phone,
		AvatarURL:       p.AvatarURL,
		Bio:             p.Bio,
		Role:            p.Role.String(),
		IsVerified:      p.IsVerified,
		LastLoginAt:     p.LastLoginAt,
		LastLoginDevice: p.LastLoginDevice,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toProfileResponses(results []appidentity.ProfileResult) []ProfileResponse {
	out := make([]ProfileResponse, len(results))
	for i := range results {
		out[i] = toProfileResponse(results[i])
	}
	return out
}

func toAuthResponse(r *appidentity.AuthResult) AuthResponse {
	return AuthResponse{
		Token: TokenResponse{
			AccessToken:           r.Tokens.AccessToken,
			RefreshToken:          r.Tokens.RefreshToken,
			AccessTokenExpiresAt:  r.Tokens.AccessTokenExpiresAt,
			RefreshTokenExpiresAt: r.Tokens.RefreshTokenExpiresAt,
			TokenType:             r.Tokens.TokenType,
		},
		User: toProfileResponse(r.Profile),
	}
}
