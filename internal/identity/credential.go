// AngelaMos | 2026
// credential.go

package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/smartpro-edu/smartpro/internal/core"
)

// Handle is what the provider knows about a signed-in identity.
type Handle struct {
	ID    string
	Email string
}

type Credential struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (c *Credential) Handle() *Handle {
	return &Handle{ID: c.ID, Email: c.Email}
}

type CredentialRepository interface {
	Create(ctx context.Context, c *Credential) error
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	GetByID(ctx context.Context, id string) (*Credential, error)
	UpdateHash(ctx context.Context, id, passwordHash string) error
}

type credentialRepository struct {
	db core.DBTX
}

func NewCredentialRepository(db core.DBTX) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Create(ctx context.Context, c *Credential) error {
	query := `
		INSERT INTO credentials (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, c.ID, c.Email, c.PasswordHash).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create credential: %w", core.ErrDuplicateIdentity)
		}
		return fmt.Errorf("create credential: %w: %w", core.ErrStoreUnavailable, err)
	}

	return nil
}

func (r *credentialRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*Credential, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM credentials
		WHERE LOWER(email) = LOWER($1)`

	var c Credential
	err := r.db.GetContext(ctx, &c, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get credential: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w: %w", core.ErrStoreUnavailable, err)
	}

	return &c, nil
}

func (r *credentialRepository) GetByID(
	ctx context.Context,
	id string,
) (*Credential, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM credentials
		WHERE id = $1`

	var c Credential
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get credential: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w: %w", core.ErrStoreUnavailable, err)
	}

	return &c, nil
}

func (r *credentialRepository) UpdateHash(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE credentials
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, passwordHash); err != nil {
		return fmt.Errorf("update credential hash: %w", err)
	}

	return nil
}
