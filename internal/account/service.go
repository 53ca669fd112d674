// AngelaMos | 2026
// service.go

package account

import (
	"context"
	"fmt"

	"github.com/smartpro-edu/smartpro/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id string) (*Account, error) {
	if id == "" {
		return nil, fmt.Errorf("get account: %w", core.ErrUnauthorized)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListPendingTeachers(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx, RoleTeacher, StatusPending)
}

func (s *Service) Approve(
	ctx context.Context,
	actor *Account,
	id string,
) (*Account, error) {
	return s.transition(ctx, actor, id, StatusActive)
}

func (s *Service) Reject(
	ctx context.Context,
	actor *Account,
	id string,
) (*Account, error) {
	return s.transition(ctx, actor, id, StatusRejected)
}

// transition reads the target, checks the move, then writes the status
// field alone. Concurrent admin decisions on the same account are
// last-write-wins.
func (s *Service) transition(
	ctx context.Context,
	actor *Account,
	id string,
	next Status,
) (*Account, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, fmt.Errorf("set status %s: %w", next, core.ErrForbidden)
	}

	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if target.Role != RoleTeacher || !target.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf(
			"set status %s on %s %s account: %w",
			next,
			target.Status,
			target.Role,
			core.ErrInvalidTransition,
		)
	}

	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}

	target.Status = next
	return target, nil
}

func (s *Service) CountByRole(ctx context.Context, role Role) (int, error) {
	return s.repo.CountByRole(ctx, role)
}
