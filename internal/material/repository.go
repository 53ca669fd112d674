// AngelaMos | 2026
// repository.go

package material

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smartpro-edu/smartpro/internal/docstore"
)

const Collection = "materials"

const fieldTeacherID = "teacherId"

type record struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	FileURL     string    `json:"fileUrl,omitempty"`
	VideoURL    string    `json:"videoUrl,omitempty"`
	TeacherID   string    `json:"teacherId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Repository interface {
	Create(ctx context.Context, m *Material) error
	ListByTeacher(ctx context.Context, teacherID string) ([]Material, error)
	List(ctx context.Context, limit int) ([]Material, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	store  docstore.Store
	logger *slog.Logger
}

func NewRepository(store docstore.Store, logger *slog.Logger) Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &repository{store: store, logger: logger}
}

func (r *repository) Create(ctx context.Context, m *Material) error {
	id, err := r.store.Add(ctx, Collection, record{
		Title:       m.Title,
		Description: m.Description,
		FileURL:     m.FileURL,
		VideoURL:    m.VideoURL,
		TeacherID:   m.TeacherID,
		CreatedAt:   m.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("create material: %w", err)
	}

	m.ID = id
	return nil
}

func (r *repository) ListByTeacher(
	ctx context.Context,
	teacherID string,
) ([]Material, error) {
	return r.query(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Where(fieldTeacherID, teacherID)},
		OrderBy: &docstore.OrderBy{Field: docstore.FieldCreatedAt, Desc: true},
	})
}

// List returns the newest materials across all teachers. A zero limit
// returns everything.
func (r *repository) List(ctx context.Context, limit int) ([]Material, error) {
	return r.query(ctx, docstore.Query{
		OrderBy: &docstore.OrderBy{Field: docstore.FieldCreatedAt, Desc: true},
		Limit:   limit,
	})
}

func (r *repository) Count(ctx context.Context) (int, error) {
	n, err := r.store.Count(ctx, Collection)
	if err != nil {
		return 0, fmt.Errorf("count materials: %w", err)
	}
	return n, nil
}

func (r *repository) query(ctx context.Context, q docstore.Query) ([]Material, error) {
	docs, err := r.store.Query(ctx, Collection, q)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}

	materials := make([]Material, 0, len(docs))
	for i := range docs {
		var rec record
		if err := docs[i].Decode(&rec); err != nil {
			r.logger.WarnContext(ctx, "skipping malformed material",
				"id", docs[i].ID,
				"error", err,
			)
			continue
		}

		createdAt := rec.CreatedAt
		if createdAt.IsZero() {
			createdAt = docs[i].CreatedAt
		}

		materials = append(materials, Material{
			ID:          docs[i].ID,
			Title:       rec.Title,
			Description: rec.Description,
			FileURL:     rec.FileURL,
			VideoURL:    rec.VideoURL,
			TeacherID:   rec.TeacherID,
			CreatedAt:   createdAt,
		})
	}

	return materials, nil
}
