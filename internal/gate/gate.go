// AngelaMos | 2026
// gate.go

// Package gate holds the pure access rules: role gates, login
// eligibility, post-login routing and the mapping from failures to the
// message shown to the user. Nothing here performs I/O.
package gate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/core"
)

type Outcome int

const (
	Allow Outcome = iota
	RedirectToLogin
	Deny
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case Deny:
		return "deny"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Decision struct {
	Outcome Outcome
	Message string
}

func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}

const msgInsufficientRole = "insufficient role"

// Authorize checks plain set membership. Admin does not implicitly pass a
// teacher or student gate.
func Authorize(a *account.Account, required ...account.Role) Decision {
	if a == nil {
		return Decision{Outcome: RedirectToLogin}
	}
	if !slices.Contains(required, a.Role) {
		return Decision{Outcome: Deny, Message: msgInsufficientRole}
	}
	return Decision{Outcome: Allow}
}

// CheckLoginEligibility rejects accounts that may not start a session.
// Rejection is checked first so a rejected teacher never reads as pending.
func CheckLoginEligibility(a *account.Account) error {
	switch {
	case a.Status == account.StatusRejected:
		return fmt.Errorf("login %s: %w", a.ID, core.ErrAccountRejected)
	case a.Role == account.RoleTeacher && a.Status == account.StatusPending:
		return fmt.Errorf("login %s: %w", a.ID, core.ErrPendingApproval)
	default:
		return nil
	}
}

type Area string

const (
	AdminArea   Area = "/admin-dashboard"
	TeacherArea Area = "/teacher-dashboard"
	StudentArea Area = "/student-dashboard"
	LandingArea Area = "/landing"
	LoginArea   Area = "/login"
)

func Route(role account.Role) Area {
	switch role {
	case account.RoleAdmin:
		return AdminArea
	case account.RoleTeacher:
		return TeacherArea
	case account.RoleStudent:
		return StudentArea
	default:
		return LandingArea
	}
}

// HasEntitlement reports whether a student may use paid features.
func HasEntitlement(a *account.Account, activeSubscription bool) bool {
	if a == nil || a.Role != account.RoleStudent {
		return false
	}
	return a.HasBalance() || activeSubscription
}

type Category string

const (
	CategoryCredentialInvalid Category = "credential_invalid"
	CategoryAccountPending    Category = "account_pending"
	CategoryAccountRejected   Category = "account_rejected"
	CategoryGeneric           Category = "generic"
)

func MessageCategory(err error) Category {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, core.ErrInvalidCredential):
		return CategoryCredentialInvalid
	case errors.Is(err, core.ErrPendingApproval):
		return CategoryAccountPending
	case errors.Is(err, core.ErrAccountRejected):
		return CategoryAccountRejected
	default:
		return CategoryGeneric
	}
}

// Describe builds the HTTP error for err tagged with its message category.
func Describe(err error) *core.AppError {
	return core.DomainError(err).WithCategory(string(MessageCategory(err)))
}
