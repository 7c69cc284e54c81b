// Package auth issues and verifies RentNest bearer tokens and tracks revoked ones.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/infrastructure/config"
)

// TokenType distinguishes access from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// clockSkew tolerated when checking exp, nbf and iat
const clockSkew = 5 * time.Second

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

// Claims is the payload of every RentNest token. Role travels in access tokens only.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	TokenType TokenType `json:"token_type"`
	// IssuedAtMicro is iat in microseconds; iat alone cannot order a token
	// against a logout in the same second
	IssuedAtMicro int64 `json:"iat_us,omitempty"`
}

// GetUserUUID parses the profile id carried by the token
func (c *Claims) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// GetIssuedAtTime returns the issue time, preferring iat_us over iat.
// It is the zero time when both are absent.
func (c *Claims) GetIssuedAtTime() time.Time {
	if c.IssuedAtMicro > 0 {
		return time.UnixMicro(c.IssuedAtMicro)
	}
	return numericTime(c.IssuedAt)
}

// GetExpiresAtTime returns exp, or the zero time when absent
func (c *Claims) GetExpiresAtTime() time.Time {
	return numericTime(c.ExpiresAt)
}

// GetRemainingTTL is how long the token stays valid, never negative
func (c *Claims) GetRemainingTTL() time.Duration {
	exp := c.GetExpiresAtTime()
	if exp.IsZero() {
		return 0
	}
	return max(time.Until(exp), 0)
}

func numericTime(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}

// TokenPair is what login, register and refresh hand back
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// GenerateTokenInput identifies the profile a pair is issued to
type GenerateTokenInput struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

type tokenKind struct {
	secret []byte
	ttl    time.Duration
}

// JWTService signs and verifies HS256 tokens. Access and refresh tokens use
// separate secrets unless no refresh secret is configured.
type JWTService struct {
	kinds  map[TokenType]tokenKind
	issuer string
	parser *jwt.Parser
}

// NewJWTService creates a JWTService from cfg
func NewJWTService(cfg config.JWTConfig) *JWTService {
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	return &JWTService{
		kinds: map[TokenType]tokenKind{
			TokenTypeAccess:  {secret: []byte(cfg.Secret), ttl: cfg.AccessTokenExpiration},
			TokenTypeRefresh: {secret: []byte(refreshSecret), ttl: cfg.RefreshTokenExpiration},
		},
		issuer: cfg.Issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Issuer),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

// GenerateTokenPair issues an access and a refresh token for input
func (s *JWTService) GenerateTokenPair(input GenerateTokenInput) (*TokenPair, error) {
	now := time.Now()

	access, accessExp, err := s.sign(TokenTypeAccess, now, Claims{
		UserID: input.UserID.String(),
		Email:  input.Email,
		Role:   input.Role,
	})
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.sign(TokenTypeRefresh, now, Claims{
		UserID: input.UserID.String(),
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
		TokenType:             "Bearer",
	}, nil
}

func (s *JWTService) sign(kind TokenType, now time.Time, claims Claims) (string, time.Time, error) {
	k := s.kinds[kind]
	exp := now.Add(k.ttl)
	claims.TokenType = kind
	claims.IssuedAtMicro = now.UnixMicro()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   claims.UserID,
		Audience:  jwt.ClaimStrings{s.issuer},
		ExpiresAt: jwt.NewNumericDate(exp),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(k.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, exp, nil
}

// ValidateAccessToken verifies an access token and returns its claims
func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.verify(TokenTypeAccess, token)
}

// ValidateRefreshToken verifies a refresh token and returns its claims
func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.verify(TokenTypeRefresh, token)
}

func (s *JWTService) verify(kind TokenType, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.kinds[kind].secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	case !token.Valid:
		return nil, ErrInvalidClaims
	case claims.TokenType != kind:
		return nil, ErrInvalidTokenType
	case claims.UserID == "":
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// GetRefreshTokenExpiration is the refresh token lifetime; revoking every
// session of a user must outlive it
func (s *JWTService) GetRefreshTokenExpiration() time.Duration {
	return s.kinds[TokenTypeRefresh].ttl
}
