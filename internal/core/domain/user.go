package domain

import (
	"strings"
	"time"
	"unicode"
)

// Role is the authorization level carried by a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User models an authenticated actor in the system.
type User struct {
	ID           string    `json:"_id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"emailId"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Principal returns the identity value threaded through service calls.
func (u *User) Principal() Principal {
	return Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

// Authenticated reports whether p identifies a resolved user.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// Require returns ErrUnauthenticated for an anonymous principal and
// ErrForbidden when the principal's role differs from role.
func (p Principal) Require(role Role) error {
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	if p.Role != role {
		return ErrForbidden
	}
	return nil
}

// NormalizeEmail trims and lowercases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const minPasswordLength = 8

// IsStrongPassword requires at least 8 characters including a lowercase
// letter, an uppercase letter, a digit and a symbol.
func IsStrongPassword(pw string) bool {
	if len(pw) < minPasswordLength {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}
