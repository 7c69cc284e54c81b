package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/rentnest/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var errInvalidCredentials = shared.NewDomainError("UNAUTHORIZED", "Invalid email or password")

// AuthService handles registration, login and token lifecycle
type AuthService struct {
	profiles   identity.ProfileRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	events     shared.EventPublisher
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service.
// blacklist and events may be nil.
func NewAuthService(
	profiles identity.ProfileRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		profiles:   profiles,
		jwtService: jwtService,
		blacklist:  blacklist,
		events:     events,
		logger:     logger,
	}
}

// Register creates a profile and signs it in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if input.Role != "" && !input.Role.IsSelfAssignable() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Role must be renter, landlord or agent")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	exists, err := s.profiles.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
	}

	profile, err := identity.NewProfile(email, input.Password, input.FullName, input.Role)
	if err != nil {
		return nil, err
	}
	if input.Phone != "" {
		if err := profile.UpdateDetails(profile.FullName, input.Phone, "", ""); err != nil {
			return nil, err
		}
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
		}
		return nil, err
	}
	s.publish(ctx, profile)

	s.logger.Info("Profile registered",
		zap.String("user_id", profile.ID.String()),
		zap.String("role", profile.Role.String()))

	return s.issue(profile)
}

// Login authenticates by email and password
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Email and password are required")
	}

	profile, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown email")
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !profile.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", profile.ID.String()))
		return nil, errInvalidCredentials
	}

	profile.RecordLogin(input.IP, DescribeDevice(input.UserAgent))
	if err := s.profiles.Update(ctx, profile); err != nil {
		// login still succeeds
		s.logger.Error("Failed to record login", zap.Error(err))
	}

	s.logger.Info("User logged in", zap.String("user_id", profile.ID.String()))
	return s.issue(profile)
}

// Refresh exchanges a refresh token for a new pair carrying the current role
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
		}
		return nil, shared.NewDomainError("INVALID_TOKEN", "Invalid refresh token")
	}

	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Invalid user ID in token")
	}
	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_TOKEN", "User no longer exists")
		}
		return nil, err
	}

	// the used refresh token cannot be replayed
	if s.blacklist != nil && claims.ID != "" {
		if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
			s.logger.Warn("Failed to retire refresh token", zap.Error(err))
		}
	}
	return s.issue(profile)
}

// Logout revokes the presented token and every token issued to the user before now
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if s.blacklist == nil {
		return nil
	}
	if input.TokenJTI != "" {
		ttl := time.Until(input.TokenExpiresAt)
		if ttl > 0 {
			if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, ttl); err != nil {
				return err
			}
		}
	}
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, input.UserID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
		return err
	}
	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// ValidateAccessToken verifies an access token and checks it has not been revoked
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, auth.ErrTokenBlacklisted
	}
	return claims, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	if s.blacklist == nil {
		return nil
	}
	if claims.ID != "" {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return err
		}
		if revoked {
			return shared.NewDomainError("INVALID_TOKEN", "Token has been revoked")
		}
	}
	invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		return err
	}
	if invalidated {
		return shared.NewDomainError("INVALID_TOKEN", "Token has been revoked")
	}
	return nil
}

func (s *AuthService) issue(profile *identity.Profile) (*AuthResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: profile.ID,
		Email:  profile.Email,
		Role:   profile.Role.String(),
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, err
	}
	return &AuthResult{
		Tokens: TokenResult{
			AccessToken:           pair.AccessToken,
			RefreshToken:          pair.RefreshToken,
			AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
			RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
			TokenType:             pair.TokenType,
		},
		Profile: ToProfileResult(profile),
	}, nil
}

func (s *AuthService) publish(ctx context.Context, profile *identity.Profile) {
	events := profile.GetDomainEvents()
	profile.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish profile events", zap.Error(err))
	}
}
