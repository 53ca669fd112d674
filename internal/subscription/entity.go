// AngelaMos | 2026
// entity.go

package subscription

import (
	"fmt"
	"time"

	"github.com/smartpro-edu/smartpro/internal/core"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusActive, StatusExpired:
		return st, nil
	default:
		return "", fmt.Errorf("parse subscription status %q: %w", s, core.ErrInvalidInput)
	}
}

type Subscription struct {
	ID          string
	UserID      string
	Status      Status
	RequestedAt time.Time
	ActivatedAt *time.Time
	ExpiresAt   *time.Time
}

// IsActive reports whether the subscription grants access at now. An
// active subscription without an expiry never lapses.
func (s *Subscription) IsActive(now time.Time) bool {
	if s.Status != StatusActive {
		return false
	}
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}
