package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	letterRegex   = regexp.MustCompile(`[a-zA-Z]`)
	digitRegex    = regexp.MustCompile(`[0-9]`)
)

// User is a member of staff who operates the system from a branch.
type User struct {
	shared.BaseAggregateRoot
	Username     string
	FullName     string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	BranchID     *uuid.UUID
	IsActive     bool
	LastLoginAt  *time.Time
}

// NewUser creates an active user with a hashed password.
func NewUser(username, fullName, password string, role Role) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateFullName(fullName); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewValidationError("Role must be one of: admin, manager, operator")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewValidationError("Failed to hash password")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          strings.ToLower(strings.TrimSpace(username)),
		FullName:          strings.TrimSpace(fullName),
		PasswordHash:      hash,
		Role:              role,
		IsActive:          true,
	}, nil
}

// Capabilities returns what this user may do. Inactive users may do nothing.
func (u *User) Capabilities() CapabilitySet {
	if !u.IsActive {
		return CapabilitySet{}
	}
	return u.Role.Capabilities()
}

// SetFullName sets the user's display name
func (u *User) SetFullName(fullName string) error {
	if err := validateFullName(fullName); err != nil {
		return err
	}
	u.FullName = strings.TrimSpace(fullName)
	u.touch()
	return nil
}

// SetContact sets the user's email and phone
func (u *User) SetContact(email, phone string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && (len(email) > 200 || !emailRegex.MatchString(email)) {
		return shared.NewValidationError("Invalid email format")
	}
	phone = strings.TrimSpace(phone)
	if len(phone) > 20 {
		return shared.NewValidationError("Phone cannot exceed 20 characters")
	}
	u.Email = email
	u.Phone = phone
	u.touch()
	return nil
}

// ChangeRole assigns a new role
func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.NewValidationError("Role must be one of: admin, manager, operator")
	}
	u.Role = role
	u.touch()
	return nil
}

// AssignBranch moves the user to a branch; nil detaches the user from any branch.
func (u *User) AssignBranch(branchID *uuid.UUID) {
	u.BranchID = branchID
	u.touch()
}

// SetPassword replaces the password hash
func (u *User) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return shared.NewValidationError("Failed to hash password")
	}
	u.PasswordHash = hash
	u.touch()
	return nil
}

// VerifyPassword checks password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Activate enables the user
func (u *User) Activate() {
	u.IsActive = true
	u.touch()
}

// Deactivate disables the user
func (u *User) Deactivate() {
	u.IsActive = false
	u.touch()
}

func (u *User) touch() {
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		return shared.NewValidationError("Username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewValidationError("Username cannot exceed 100 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewValidationError("Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func validateFullName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("Full name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewValidationError("Full name cannot exceed 200 characters")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewValidationError("Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewValidationError("Password cannot exceed 72 characters")
	}
	if !letterRegex.MatchString(password) || !digitRegex.MatchString(password) {
		return shared.NewValidationError("Password must contain at least one letter and one number")
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
