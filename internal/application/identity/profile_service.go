package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/rentnest/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var errProfileNotFound = shared.NewDomainError("NOT_FOUND", "User not found")

// ProfileService manages the caller's own profile and admin user management
type ProfileService struct {
	profiles  identity.ProfileRepository
	blacklist auth.TokenBlacklist
	// revokeTTL is how long a role change keeps older tokens invalid
	revokeTTL time.Duration
	logger    *zap.Logger
}

// NewProfileService creates a new profile service. blacklist may be nil.
func NewProfileService(
	profiles identity.ProfileRepository,
	blacklist auth.TokenBlacklist,
	revokeTTL time.Duration,
	logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		profiles:  profiles,
		blacklist: blacklist,
		revokeTTL: revokeTTL,
		logger:    logger,
	}
}

// Me returns the caller's profile
func (s *ProfileService) Me(ctx context.Context, userID uuid.UUID) (*ProfileResult, error) {
	profile, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := ToProfileResult(profile)
	return &result, nil
}

// UpdateProfile changes the caller's editable fields
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileResult, error) {
	profile, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := profile.UpdateDetails(input.FullName, input.Phone, input.Bio, input.AvatarURL); err != nil {
		return nil, err
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	result := ToProfileResult(profile)
	return &result, nil
}

// ChangePassword replaces the caller's password after checking the old one
func (s *ProfileService) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	if input.OldPassword == "" || input.NewPassword == "" {
		return shared.NewDomainError("INVALID_INPUT", "Old and new password are required")
	}
	profile, err := s.find(ctx, userID)
	if err != nil {
		return err
	}
	if err := profile.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		return err
	}
	s.logger.Info("User password changed", zap.String("user_id", userID.String()))
	return nil
}

// ListUsers returns one page of profiles for the admin console
func (s *ProfileService) ListUsers(ctx context.Context, input ListUsersInput) (*shared.Paginated[ProfileResult], error) {
	if input.Role != nil && !input.Role.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid role")
	}
	page := shared.NewPageRequest(input.Page, input.PageSize)

	profiles, total, err := s.profiles.FindAll(ctx, identity.ProfileFilter{
		Keyword:  input.Search,
		Role:     input.Role,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
	if err != nil {
		return nil, err
	}

	items := make([]ProfileResult, len(profiles))
	for i := range profiles {
		items[i] = ToProfileResult(&profiles[i])
	}
	result := shared.NewPaginated(items, total, page.Page, page.PageSize)
	return &result, nil
}

// ChangeRole moves a user to another role and revokes their outstanding tokens,
// which still carry the old role
func (s *ProfileService) ChangeRole(ctx context.Context, actor identity.Actor, userID uuid.UUID, role identity.Role) (*ProfileResult, error) {
	if !actor.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid role")
	}
	if actor.ID == userID && role != identity.RoleAdmin {
		return nil, shared.NewDomainError("INVALID_STATE", "Admins cannot demote themselves")
	}

	profile, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Role != role {
		if err := profile.ChangeRole(role); err != nil {
			return nil, err
		}
		if err := s.profiles.Update(ctx, profile); err != nil {
			return nil, err
		}
		if s.blacklist != nil {
			if err := s.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), s.revokeTTL); err != nil {
				s.logger.Warn("Failed to revoke tokens after role change", zap.Error(err))
			}
		}
		s.logger.Info("User role changed",
			zap.String("user_id", userID.String()),
			zap.String("role", role.String()),
			zap.String("changed_by", actor.ID.String()))
	}

	result := ToProfileResult(profile)
	return &result, nil
}

func (s *ProfileService) find(ctx context.Context, id uuid.UUID) (*identity.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}
