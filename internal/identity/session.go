// AngelaMos | 2026
// session.go

package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/smartpro-edu/smartpro/internal/core"
)

// Session is one refresh token. Rotation links tokens of the same login
// through FamilyID, which is also the session id carried in access tokens.
type Session struct {
	ID           string     `db:"id"`
	IdentityID   string     `db:"identity_id"`
	TokenHash    string     `db:"token_hash"`
	FamilyID     string     `db:"family_id"`
	ExpiresAt    time.Time  `db:"expires_at"`
	CreatedAt    time.Time  `db:"created_at"`
	IsUsed       bool       `db:"is_used"`
	UsedAt       *time.Time `db:"used_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
	ReplacedByID *string    `db:"replaced_by_id"`
	UserAgent    string     `db:"user_agent"`
	IPAddress    string     `db:"ip_address"`
}

func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	FindByHash(ctx context.Context, tokenHash string) (*Session, error)
	MarkAsUsed(ctx context.Context, id, replacedByID string) error
	RevokeFamily(ctx context.Context, familyID string) (int64, error)
	RevokeAllForIdentity(ctx context.Context, identityID string) (int64, error)
	ListActive(ctx context.Context, identityID string) ([]Session, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type sessionRepository struct {
	db core.DBTX
}

func NewSessionRepository(db core.DBTX) SessionRepository {
	return &sessionRepository{db: db}
}

const sessionColumns = `
	id, identity_id, token_hash, family_id, expires_at, created_at,
	is_used, used_at, revoked_at, replaced_by_id, user_agent, ip_address`

func (r *sessionRepository) Create(ctx context.Context, s *Session) error {
	query := `
		INSERT INTO sessions (
			id, identity_id, token_hash, family_id, expires_at,
			user_agent, ip_address
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &s.CreatedAt, query,
		s.ID,
		s.IdentityID,
		s.TokenHash,
		s.FamilyID,
		s.ExpiresAt,
		s.UserAgent,
		s.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

func (r *sessionRepository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE token_hash = $1`

	var s Session
	err := r.db.GetContext(ctx, &s, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find session: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}

	return &s, nil
}

// MarkAsUsed only succeeds once per token. A second caller gets
// ErrNotFound, which rotation treats as reuse.
func (r *sessionRepository) MarkAsUsed(
	ctx context.Context,
	id, replacedByID string,
) error {
	query := `
		UPDATE sessions
		SET is_used = true, used_at = NOW(), replaced_by_id = $2
		WHERE id = $1 AND is_used = false AND revoked_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, replacedByID)
	if err != nil {
		return fmt.Errorf("mark session used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark session used: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mark session used: %w", core.ErrNotFound)
	}

	return nil
}

func (r *sessionRepository) RevokeFamily(
	ctx context.Context,
	familyID string,
) (int64, error) {
	query := `
		UPDATE sessions
		SET revoked_at = NOW()
		WHERE family_id = $1 AND revoked_at IS NULL`

	return r.execCount(ctx, "revoke session family", query, familyID)
}

func (r *sessionRepository) RevokeAllForIdentity(
	ctx context.Context,
	identityID string,
) (int64, error) {
	query := `
		UPDATE sessions
		SET revoked_at = NOW()
		WHERE identity_id = $1 AND revoked_at IS NULL`

	return r.execCount(ctx, "revoke identity sessions", query, identityID)
}

func (r *sessionRepository) ListActive(
	ctx context.Context,
	identityID string,
) ([]Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE identity_id = $1
			AND revoked_at IS NULL
			AND is_used = false
			AND expires_at > NOW()
		ORDER BY created_at DESC`

	var sessions []Session
	if err := r.db.SelectContext(ctx, &sessions, query, identityID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

func (r *sessionRepository) DeleteExpired(
	ctx context.Context,
	before time.Time,
) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < $1`
	return r.execCount(ctx, "delete expired sessions", query, before)
}

func (r *sessionRepository) execCount(
	ctx context.Context,
	op, query string,
	args ...any,
) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return rows, nil
}
