// AngelaMos | 2026
// service.go

package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/core"
)

const DefaultPeriod = 30 * 24 * time.Hour

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Request records a pending subscription for the student. A second request
// while one is pending or active is rejected with ErrDuplicateKey.
//
// The id is the user's request sequence number, counted before the
// pending check. Concurrent requests that saw the same count collide on
// the id, and only one of them is stored.
func (s *Service) Request(ctx context.Context, userID string) (*Subscription, error) {
	if userID == "" {
		return nil, fmt.Errorf("request subscription: %w", core.ErrUnauthorized)
	}

	seq, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	for i := range existing {
		if existing[i].Status == StatusPending || existing[i].IsActive(now) {
			return nil, fmt.Errorf(
				"request subscription: %s already %s: %w",
				existing[i].ID,
				existing[i].Status,
				core.ErrDuplicateKey,
			)
		}
	}

	sub := &Subscription{
		ID:          requestID(userID, seq+1),
		UserID:      userID,
		Status:      StatusPending,
		RequestedAt: now,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}

func requestID(userID string, seq int) string {
	return fmt.Sprintf("%s-%d", userID, seq)
}

// Active returns the user's current subscription or ErrNotFound.
func (s *Service) Active(ctx context.Context, userID string) (*Subscription, error) {
	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range subs {
		if subs[i].IsActive(now) {
			return &subs[i], nil
		}
	}

	return nil, fmt.Errorf("active subscription for %s: %w", userID, core.ErrNotFound)
}

func (s *Service) HasActive(ctx context.Context, userID string) (bool, error) {
	_, err := s.Active(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) ListPending(ctx context.Context) ([]Subscription, error) {
	return s.repo.ListByStatus(ctx, StatusPending)
}

// Activate moves a pending subscription to active for period. Only an
// admin may activate.
func (s *Service) Activate(
	ctx context.Context,
	actor *account.Account,
	id string,
	period time.Duration,
) (*Subscription, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, fmt.Errorf("activate subscription: %w", core.ErrForbidden)
	}
	if period <= 0 {
		period = DefaultPeriod
	}

	sub, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != StatusPending {
		return nil, fmt.Errorf(
			"activate subscription %s from %s: %w",
			id,
			sub.Status,
			core.ErrInvalidTransition,
		)
	}

	activatedAt := s.now().UTC()
	expiresAt := activatedAt.Add(period)
	if err := s.repo.Activate(ctx, id, activatedAt, expiresAt); err != nil {
		return nil, err
	}

	sub.Status = StatusActive
	sub.ActivatedAt = &activatedAt
	sub.ExpiresAt = &expiresAt
	return sub, nil
}
