package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/rentnest/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProfileService(repo *MockProfileRepository, bl auth.TokenBlacklist) *ProfileService {
	return NewProfileService(repo, bl, time.Hour, zap.NewNop())
}

func TestProfileService_Me(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProfileRepository)
	svc := newProfileService(repo, nil)
	profile := newTestProfile(t, identity.RoleRenter)

	repo.On("FindByID", ctx, profile.ID).Return(profile, nil)
	missing := uuid.New()
	repo.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)

	me, err := svc.Me(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", me.Email)

	_, err = svc.Me(ctx, missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProfileService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProfileRepository)
	svc := newProfileService(repo, nil)
	profile := newTestProfile(t, identity.RoleRenter)

	repo.On("FindByID", ctx, profile.ID).Return(profile, nil)
	repo.On("Update", ctx, profile).Return(nil)

	result, err := svc.UpdateProfile(ctx, profile.ID, UpdateProfileInput{
		FullName: "Jane Q. Doe", Phone: "+1 555 0100", Bio: "Quiet tenant",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Q. Doe", result.FullName)
	assert.Equal(t, "+1 555 0100", result.Phone)

	_, err = svc.UpdateProfile(ctx, profile.ID, UpdateProfileInput{FullName: " "})
	assert.Error(t, err)
}

func TestProfileService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProfileRepository)
	svc := newProfileService(repo, nil)
	profile := newTestProfile(t, identity.RoleRenter)

	repo.On("FindByID", ctx, profile.ID).Return(profile, nil)
	repo.On("Update", ctx, profile).Return(nil).Once()

	err := svc.ChangePassword(ctx, profile.ID, ChangePasswordInput{OldPassword: "nope-nope-1", NewPassword: "another-pass-2"})
	assert.Error(t, err)

	require.NoError(t, svc.ChangePassword(ctx, profile.ID, ChangePasswordInput{OldPassword: testPassword, NewPassword: "another-pass-2"}))
	assert.True(t, profile.VerifyPassword("another-pass-2"))

	err = svc.ChangePassword(ctx, profile.ID, ChangePasswordInput{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	repo.AssertExpectations(t)
}

func TestProfileService_ListUsers(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProfileRepository)
	svc := newProfileService(repo, nil)
	landlord := identity.RoleLandlord
	p := newTestProfile(t, identity.RoleLandlord)

	repo.On("FindAll", ctx, identity.ProfileFilter{Keyword: "jane", Role: &landlord, Page: 1, PageSize: 20}).
		Return([]identity.Profile{*p}, int64(1), nil)

	result, err := svc.ListUsers(ctx, ListUsersInput{Role: &landlord, Search: "jane"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	assert.Equal(t, 1, result.TotalPages)
	require.Len(t, result.Items, 1)
	assert.Equal(t, p.ID, result.Items[0].ID)

	bad := identity.Role("owner")
	_, err = svc.ListUsers(ctx, ListUsersInput{Role: &bad})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestProfileService_ChangeRole(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProfileRepository)
	bl := auth.NewInMemoryTokenBlacklist()
	svc := newProfileService(repo, bl)
	admin := identity.Actor{ID: uuid.New(), Role: identity.RoleAdmin}
	profile := newTestProfile(t, identity.RoleRenter)
	issuedBefore := time.Now().Add(-time.Minute)

	repo.On("FindByID", ctx, profile.ID).Return(profile, nil)
	repo.On("Update", ctx, profile).Return(nil).Once()

	result, err := svc.ChangeRole(ctx, admin, profile.ID, identity.RoleAgent)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAgent, result.Role)

	revoked, err := bl.IsUserTokenInvalidated(ctx, profile.ID.String(), issuedBefore)
	require.NoError(t, err)
	assert.True(t, revoked)

	// no-op when unchanged
	_, err = svc.ChangeRole(ctx, admin, profile.ID, identity.RoleAgent)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Update", 1)
}

func TestProfileService_ChangeRole_Rules(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProfileRepository)
	svc := newProfileService(repo, nil)
	admin := identity.Actor{ID: uuid.New(), Role: identity.RoleAdmin}

	_, err := svc.ChangeRole(ctx, identity.Actor{ID: uuid.New(), Role: identity.RoleLandlord}, uuid.New(), identity.RoleAdmin)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.ChangeRole(ctx, admin, uuid.New(), "owner")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.ChangeRole(ctx, admin, admin.ID, identity.RoleRenter)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDescribeDevice(t *testing.T) {
	assert.Equal(t, "", DescribeDevice(""))

	desktop := DescribeDevice("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.Contains(t, desktop, "Chrome")
	assert.Contains(t, desktop, "Windows")

	phone := DescribeDevice("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	assert.Contains(t, phone, "iPhone")
}
