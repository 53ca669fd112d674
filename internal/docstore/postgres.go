// AngelaMos | 2026
// postgres.go

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartpro-edu/smartpro/internal/core"
)

type row struct {
	ID        string    `db:"id"`
	Data      []byte    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r row) document(collection string) Document {
	return Document{
		Collection: collection,
		ID:         r.ID,
		Data:       json.RawMessage(r.Data),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// PostgresStore keeps every collection in the single documents table,
// keyed by (collection, id).
type PostgresStore struct {
	db core.DBTX
}

func NewPostgresStore(db core.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("docstore %s: %w: %w", op, ErrUnavailable, err)
}

func (s *PostgresStore) Get(
	ctx context.Context,
	collection, id string,
) (*Document, error) {
	query := `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2`

	var r row
	err := s.db.GetContext(ctx, &r, query, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("docstore get %s/%s: %w", collection, id, ErrAbsent)
	}
	if err != nil {
		return nil, unavailable("get", err)
	}

	doc := r.document(collection)
	return &doc, nil
}

func (s *PostgresStore) CreateIfAbsent(
	ctx context.Context,
	collection, id string,
	data any,
) (bool, error) {
	body, err := encode(data)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO NOTHING`

	result, err := s.db.ExecContext(ctx, query, collection, id, string(body))
	if err != nil {
		return false, unavailable("create", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, unavailable("create", err)
	}

	return n == 1, nil
}

func (s *PostgresStore) Add(
	ctx context.Context,
	collection string,
	data any,
) (string, error) {
	body, err := encode(data)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)`

	if _, err := s.db.ExecContext(ctx, query, collection, id, string(body)); err != nil {
		return "", unavailable("add", err)
	}

	return id, nil
}

func (s *PostgresStore) Update(
	ctx context.Context,
	collection, id string,
	fields map[string]any,
) error {
	for name := range fields {
		if err := validField(name); err != nil {
			return err
		}
	}

	body, err := encode(fields)
	if err != nil {
		return err
	}

	query := `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2`

	result, err := s.db.ExecContext(ctx, query, collection, id, string(body))
	if err != nil {
		return unavailable("update", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return unavailable("update", err)
	}
	if n == 0 {
		return fmt.Errorf("docstore update %s/%s: %w", collection, id, ErrAbsent)
	}

	return nil
}

func (s *PostgresStore) Query(
	ctx context.Context,
	collection string,
	q Query,
) ([]Document, error) {
	if err := validQuery(q); err != nil {
		return nil, err
	}

	where, args, err := whereClause(collection, q.Filters)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT id, data, created_at, updated_at FROM documents WHERE ")
	sb.WriteString(where)
	sb.WriteString(orderClause(q.OrderBy))
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, sb.String(), args...); err != nil {
		return nil, unavailable("query", err)
	}

	docs := make([]Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r.document(collection))
	}

	return docs, nil
}

func (s *PostgresStore) Count(
	ctx context.Context,
	collection string,
	filters ...Filter,
) (int, error) {
	if err := validQuery(Query{Filters: filters}); err != nil {
		return 0, err
	}

	where, args, err := whereClause(collection, filters)
	if err != nil {
		return 0, err
	}

	var count int
	query := "SELECT COUNT(*) FROM documents WHERE " + where
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, unavailable("count", err)
	}

	return count, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.GetContext(ctx, &one, "SELECT 1"); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// whereClause uses JSONB containment so filters hit the GIN index.
func whereClause(collection string, filters []Filter) (string, []any, error) {
	clauses := []string{"collection = $1"}
	args := []any{collection}

	for _, f := range filters {
		probe, err := json.Marshal(map[string]any{f.Field: f.Value})
		if err != nil {
			return "", nil, fmt.Errorf("encode filter %s: %w", f.Field, err)
		}
		args = append(args, string(probe))
		clauses = append(clauses, fmt.Sprintf("data @> $%d::jsonb", len(args)))
	}

	return strings.Join(clauses, " AND "), args, nil
}

func orderClause(o *OrderBy) string {
	if o == nil {
		return " ORDER BY created_at ASC, id ASC"
	}

	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}

	if o.Field == FieldCreatedAt {
		return fmt.Sprintf(" ORDER BY created_at %s, id %s", dir, dir)
	}

	return fmt.Sprintf(" ORDER BY data->'%s' %s, id %s", o.Field, dir, dir)
}
