package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/identity"
)

// RegisterInput contains the input for self sign-up
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Role     identity.Role
	Phone    string
}

// LoginInput contains the input for user login
type LoginInput struct {
	Email     string
	Password  string
	IP        string // Client IP for login tracking
	UserAgent string
}

// TokenResult is an issued access/refresh pair
type TokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// AuthResult is returned by register and login
type AuthResult struct {
	Tokens  TokenResult
	Profile ProfileResult
}

// LogoutInput identifies the token being retired
type LogoutInput struct {
	UserID         uuid.UUID
	TokenJTI       string
	TokenExpiresAt time.Time
}

// ProfileResult is the public view of a profile
type ProfileResult struct {
	ID              uuid.UUID
	Email           string
	FullName        string
	Phone           string
	AvatarURL       string
	Bio             string
	Role            identity.Role
	IsVerified      bool
	LastLoginAt     *time.Time
	LastLoginDevice string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UpdateProfileInput contains the editable profile fields
type UpdateProfileInput struct {
	FullName  string
	Phone     string
	Bio       string
	AvatarURL string
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
}

// ListUsersInput filters the admin user list
type ListUsersInput struct {
	Role     *identity.Role
	Search   string
	Page     int
	PageSize int
}

// ToProfileResult converts a domain profile
func ToProfileResult(p *identity.Profile) ProfileResult {
	return ProfileResult{
		ID:              p.ID,
		Email:           p.Email,
		FullName:        p.FullName,
		Phone:           p.Phone,
		AvatarURL:       p.AvatarURL,
		Bio:             p.Bio,
		Role:            p.Role,
		IsVerified:      p.IsVerified,
		LastLoginAt:     p.LastLoginAt,
		LastLoginDevice: p.LastLoginDevice,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
