// AngelaMos | 2026
// repository.go

package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/docstore"
)

const Collection = "subscriptions"

const (
	fieldUserID      = "userId"
	fieldStatus      = "status"
	fieldActivatedAt = "activatedAt"
	fieldExpiresAt   = "expiresAt"
)

type record struct {
	UserID      string     `json:"userId"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requestedAt"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	CountByUser(ctx context.Context, userID string) (int, error)
	Get(ctx context.Context, id string) (*Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]Subscription, error)
	ListByStatus(ctx context.Context, status Status) ([]Subscription, error)
	Activate(ctx context.Context, id string, activatedAt, expiresAt time.Time) error
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

// Create stores s. When s.ID is set the write only succeeds if no
// subscription holds that id yet; otherwise the store assigns one.
func (r *repository) Create(ctx context.Context, s *Subscription) error {
	rec := record{
		UserID:      s.UserID,
		Status:      string(s.Status),
		RequestedAt: s.RequestedAt,
		ActivatedAt: s.ActivatedAt,
		ExpiresAt:   s.ExpiresAt,
	}

	if s.ID == "" {
		id, err := r.store.Add(ctx, Collection, rec)
		if err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		s.ID = id
		return nil
	}

	created, err := r.store.CreateIfAbsent(ctx, Collection, s.ID, rec)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	if !created {
		return fmt.Errorf("create subscription %s: %w", s.ID, core.ErrDuplicateKey)
	}
	return nil
}

// CountByUser counts every subscription document of the user, including
// records that no longer decode.
func (r *repository) CountByUser(ctx context.Context, userID string) (int, error) {
	n, err := r.store.Count(ctx, Collection, docstore.Where(fieldUserID, userID))
	if err != nil {
		return 0, fmt.Errorf("count user subscriptions: %w", err)
	}
	return n, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Subscription, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrAbsent) {
		return nil, fmt.Errorf("get subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	return fromDocument(doc)
}

// ListByUser returns the user's subscriptions, newest first.
func (r *repository) ListByUser(
	ctx context.Context,
	userID string,
) ([]Subscription, error) {
	return r.list(ctx, "list user subscriptions", docstore.Where(fieldUserID, userID))
}

// ListByStatus returns subscriptions in the given status, newest first.
func (r *repository) ListByStatus(
	ctx context.Context,
	status Status,
) ([]Subscription, error) {
	return r.list(ctx, "list subscriptions", docstore.Where(fieldStatus, string(status)))
}

func (r *repository) Activate(
	ctx context.Context,
	id string,
	activatedAt, expiresAt time.Time,
) error {
	err := r.store.Update(ctx, Collection, id, map[string]any{
		fieldStatus:      string(StatusActive),
		fieldActivatedAt: activatedAt.UTC(),
		fieldExpiresAt:   expiresAt.UTC(),
	})
	if errors.Is(err, docstore.ErrAbsent) {
		return fmt.Errorf("activate subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("activate subscription: %w", err)
	}
	return nil
}

func (r *repository) list(
	ctx context.Context,
	op string,
	filter docstore.Filter,
) ([]Subscription, error) {
	docs, err := r.store.Query(ctx, Collection, docstore.Query{
		Filters: []docstore.Filter{filter},
		OrderBy: &docstore.OrderBy{Field: docstore.FieldCreatedAt, Desc: true},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	subs := make([]Subscription, 0, len(docs))
	for i := range docs {
		s, err := fromDocument(&docs[i])
		if err != nil {
			r.logger.WarnContext(ctx, "skipping malformed subscription",
				"id", docs[i].ID,
				"error", err,
			)
			continue
		}
		subs = append(subs, *s)
	}

	return subs, nil
}

func fromDocument(doc *docstore.Document) (*Subscription, error) {
	var rec record
	if err := doc.Decode(&rec); err != nil {
		return nil, err
	}

	status, err := ParseStatus(rec.Status)
	if err != nil {
		return nil, fmt.Errorf("subscription %s: %w", doc.ID, err)
	}

	requestedAt := rec.RequestedAt
	if requestedAt.IsZero() {
		requestedAt = doc.CreatedAt
	}

	return &Subscription{
		ID:          doc.ID,
		UserID:      rec.UserID,
		Status:      status,
		RequestedAt: requestedAt,
		ActivatedAt: rec.ActivatedAt,
		ExpiresAt:   rec.ExpiresAt,
	}, nil
}
