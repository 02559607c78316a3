package model

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/erazemk/gudang/internal/apperr"
)

// User is an account that can sign in to the admin dashboard. Password holds
// a bcrypt hash, or a plaintext value for the built-in fallback admin.
type User struct {
	ID       string `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Password string `json:"-" db:"password"`
	Role     string `json:"role" db:"role"`
}

// UserPatch holds the fields of a partial user update.
type UserPatch struct {
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
}

// Roles.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 5

// FallbackAdminID identifies the built-in admin used when no users exist.
const FallbackAdminID = "default-admin"

// FallbackAdmin returns the built-in admin identity. It only ever lives in
// memory and is never written to a repository.
func FallbackAdmin() User {
	return User{ID: FallbackAdminID, Username: "admin", Password: "admin", Role: RoleAdmin}
}

// IsFallback reports whether u is the built-in admin.
func (u User) IsFallback() bool {
	return u.ID == FallbackAdminID
}

// Public returns a copy of u without the password.
func (u User) Public() User {
	u.Password = ""
	return u
}

// ValidRole reports whether role is known.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin: 2,
		RoleStaff: 1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// SameUsername reports whether a and b name the same account. Usernames are
// compared trimmed and with full Unicode case folding, so every backend
// agrees with login on which names collide.
func SameUsername(a, b string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}

// ValidatePassword checks the password length policy. Length is counted in
// characters, not bytes.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperr.ErrPasswordTooShort
	}
	return nil
}

// Validate checks the fields required on insert.
func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return apperr.Validation(apperr.ErrRequiredField, "username required")
	}
	if !ValidRole(u.Role) {
		return apperr.Validation(apperr.ErrInvalidField, "role must be admin or staff")
	}
	return ValidatePassword(strings.TrimSpace(u.Password))
}

// Validate checks the fields that are set.
func (p UserPatch) Validate() error {
	if p.Username != nil && strings.TrimSpace(*p.Username) == "" {
		return apperr.Validation(apperr.ErrRequiredField, "username required")
	}
	if p.Role != nil && !ValidRole(*p.Role) {
		return apperr.Validation(apperr.ErrInvalidField, "role must be admin or staff")
	}
	if p.Password != nil {
		return ValidatePassword(strings.TrimSpace(*p.Password))
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Password == nil && p.Role == nil
}

// Apply returns a copy of u with the patch applied.
func (p UserPatch) Apply(u User) User {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	return u
}
