// AngelaMos | 2026
// service.go

package material

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/core"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

type NewMaterial struct {
	Title       string
	Description string
	FileURL     string
	VideoURL    string
}

// Publish stores a material owned by the teacher. At least one of the file
// or video links is required.
func (s *Service) Publish(
	ctx context.Context,
	teacher *account.Account,
	in NewMaterial,
) (*Material, error) {
	if teacher == nil || teacher.Role != account.RoleTeacher {
		return nil, fmt.Errorf("publish material: %w", core.ErrForbidden)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("publish material: empty title: %w", core.ErrInvalidInput)
	}
	if in.FileURL == "" && in.VideoURL == "" {
		return nil, fmt.Errorf("publish material: no file or video: %w", core.ErrInvalidInput)
	}

	m := &Material{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		FileURL:     in.FileURL,
		VideoURL:    in.VideoURL,
		TeacherID:   teacher.ID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

func (s *Service) ListOwn(ctx context.Context, teacherID string) ([]Material, error) {
	return s.repo.ListByTeacher(ctx, teacherID)
}

func (s *Service) ListAll(ctx context.Context, limit int) ([]Material, error) {
	return s.repo.List(ctx, limit)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
