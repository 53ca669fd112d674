// AngelaMos | 2026
// repository.go

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/docstore"
)

type Repository interface {
	Get(ctx context.Context, id string) (*Account, error)
	CreateIfAbsent(ctx context.Context, a *Account) (bool, error)
	Create(ctx context.Context, a *Account) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	List(ctx context.Context, role Role, status Status) ([]Account, error)
	CountByRole(ctx context.Context, role Role) (int, error)
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

func (r *repository) Get(ctx context.Context, id string) (*Account, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrAbsent) {
		return nil, fmt.Errorf("get account: %w", core.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	return fromDocument(doc)
}

func (r *repository) CreateIfAbsent(ctx context.Context, a *Account) (bool, error) {
	created, err := r.store.CreateIfAbsent(ctx, Collection, a.ID, toRecord(a))
	if err != nil {
		return false, fmt.Errorf("create account: %w", err)
	}
	return created, nil
}

func (r *repository) Create(ctx context.Context, a *Account) error {
	created, err := r.CreateIfAbsent(ctx, a)
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("create account %s: %w", a.ID, core.ErrDuplicateKey)
	}
	return nil
}

func (r *repository) UpdateStatus(
	ctx context.Context,
	id string,
	status Status,
) error {
	err := r.store.Update(ctx, Collection, id, map[string]any{
		fieldStatus: string(status),
	})
	if errors.Is(err, docstore.ErrAbsent) {
		return fmt.Errorf("update account status: %w", core.ErrAccountNotFound)
	}
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	return nil
}

// List returns accounts with the given role and status, newest first.
// Records that fail to parse are skipped and logged.
func (r *repository) List(
	ctx context.Context,
	role Role,
	status Status,
) ([]Account, error) {
	docs, err := r.store.Query(ctx, Collection, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Where(fieldRole, string(role)),
			docstore.Where(fieldStatus, string(status)),
		},
		OrderBy: &docstore.OrderBy{Field: docstore.FieldCreatedAt, Desc: true},
	})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	accounts := make([]Account, 0, len(docs))
	for i := range docs {
		a, err := fromDocument(&docs[i])
		if err != nil {
			r.logger.WarnContext(ctx, "skipping malformed account",
				"id", docs[i].ID,
				"error", err,
			)
			continue
		}
		accounts = append(accounts, *a)
	}

	return accounts, nil
}

func (r *repository) CountByRole(ctx context.Context, role Role) (int, error) {
	n, err := r.store.Count(ctx, Collection, docstore.Where(fieldRole, string(role)))
	if err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}
