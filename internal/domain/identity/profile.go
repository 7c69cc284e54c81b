package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/rentnest/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is the marketplace role a profile acts under
type Role string

const (
	RoleRenter   Role = "renter"
	RoleLandlord Role = "landlord"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleRenter, RoleLandlord, RoleAgent, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsSelfAssignable reports whether a user may pick this role at registration
func (r Role) IsSelfAssignable() bool {
	return r == RoleRenter || r == RoleLandlord || r == RoleAgent
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// AllRoles lists every role, in display order
func AllRoles() []Role {
	return []Role{RoleRenter, RoleLandlord, RoleAgent, RoleAdmin}
}

// Password cost for bcrypt
const bcryptCost = 12

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	hasLetterRegex = regexp.MustCompile(`[a-zA-Z]`)
	hasNumberRegex = regexp.MustCompile(`[0-9]`)
)

// Profile is a marketplace user account
type Profile struct {
	shared.BaseAggregateRoot
	Email           string `gorm:"type:varchar(200);uniqueIndex;not null"`
	PasswordHash    string `gorm:"type:varchar(255);not null"`
	FullName        string `gorm:"type:varchar(200);not null"`
	Phone           string `gorm:"type:varchar(50)"`
	AvatarURL       string `gorm:"type:varchar(500)"`
	Bio             string `gorm:"type:text"`
	Role            Role   `gorm:"type:varchar(20);not null;index"`
	IsVerified      bool   `gorm:"not null;default:false"`
	LastLoginAt     *time.Time
	LastLoginIP     string `gorm:"type:varchar(45)"`
	LastLoginDevice string `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}

// NewProfile creates a new profile with a hashed password
func NewProfile(email, password, fullName string, role Role) (*Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Full name is required")
	}
	if len(fullName) > 200 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Full name cannot exceed 200 characters")
	}
	if role == "" {
		role = RoleRenter
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Invalid role")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	p := &Profile{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		PasswordHash:      hash,
		FullName:          fullName,
		Role:              role,
	}
	p.AddDomainEvent(NewProfileRegisteredEvent(p))
	return p, nil
}

// UpdateDetails replaces the editable profile fields
func (p *Profile) UpdateDetails(fullName, phone, bio, avatarURL string) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return shared.NewDomainError("INVALID_INPUT", "Full name is required")
	}
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_INPUT", "Phone cannot exceed 50 characters")
	}
	if len(avatarURL) > 500 {
		return shared.NewDomainError("INVALID_INPUT", "Avatar URL cannot exceed 500 characters")
	}
	p.FullName = fullName
	p.Phone = strings.TrimSpace(phone)
	p.Bio = bio
	p.AvatarURL = strings.TrimSpace(avatarURL)
	p.Touch()
	return nil
}

// VerifyPassword checks a plaintext password against the stored hash
func (p *Profile) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) == nil
}

// ChangePassword replaces the password after verifying the old one
func (p *Profile) ChangePassword(oldPassword, newPassword string) error {
	if !p.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	p.PasswordHash = hash
	p.Touch()
	return nil
}

// ChangeRole moves the profile to another role
func (p *Profile) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Invalid role")
	}
	p.Role = role
	p.Touch()
	return nil
}

// RecordLogin stamps the last successful login
func (p *Profile) RecordLogin(ip, device string) {
	now := time.Now().UTC()
	p.LastLoginAt = &now
	p.LastLoginIP = ip
	if len(device) > 200 {
		device = device[:200]
	}
	p.LastLoginDevice = device
}

// IsAdmin returns true for admin profiles
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email is required")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password is required")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		// bcrypt ignores everything past 72 bytes
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !hasLetterRegex.MatchString(password) || !hasNumberRegex.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
