// AngelaMos | 2026
// entity.go

package account

import (
	"fmt"
	"strings"
	"time"

	"github.com/smartpro-edu/smartpro/internal/core"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return r, nil
	default:
		return "", fmt.Errorf("parse role %q: %w", s, core.ErrInvalidRole)
	}
}

// ParseRegistrationRole accepts only the roles open to self-registration.
func ParseRegistrationRole(s string) (Role, error) {
	r, err := ParseRole(s)
	if err != nil {
		return "", err
	}
	if r == RoleAdmin {
		return "", fmt.Errorf("register as %q: %w", s, core.ErrInvalidRole)
	}
	return r, nil
}

type Status string

const (
	StatusActive   Status = "active"
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusPending, StatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("parse status %q: %w", s, core.ErrMalformedAccount)
	}
}

// CanTransitionTo reports whether s may move to next. Only a pending
// account moves, and only to active or rejected.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && (next == StatusActive || next == StatusRejected)
}

// InitialStatus is the status an account of role r is created with.
func InitialStatus(r Role) Status {
	if r == RoleTeacher {
		return StatusPending
	}
	return StatusActive
}

type Profile struct {
	School    string
	Class     string
	Expertise string
}

type Account struct {
	ID          string
	Email       string
	DisplayName string
	Role        Role
	Status      Status
	Balance     *int64
	Profile     Profile
	CreatedAt   time.Time
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// HasBalance reports a positive prepaid balance. Only student balances
// carry meaning.
func (a *Account) HasBalance() bool {
	return a.Role == RoleStudent && a.Balance != nil && *a.Balance > 0
}

// NewBootstrapAdmin synthesizes the reserved administrator record.
func NewBootstrapAdmin(id, email, name string, now time.Time) *Account {
	return &Account{
		ID:          id,
		Email:       strings.ToLower(email),
		DisplayName: name,
		Role:        RoleAdmin,
		Status:      StatusActive,
		CreatedAt:   now.UTC(),
	}
}
