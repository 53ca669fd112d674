// AngelaMos | 2026
// store.go

package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/smartpro-edu/smartpro/internal/core"
)

var (
	ErrAbsent = errors.New("document absent")

	// ErrUnavailable is the store-level alias of core.ErrStoreUnavailable so
	// callers higher up can match either.
	ErrUnavailable = core.ErrStoreUnavailable

	ErrInvalidField = errors.New("invalid field name")
)

// FieldCreatedAt orders by the store-managed creation time rather than a
// field inside the document body.
const FieldCreatedAt = "createdAt"

type Document struct {
	Collection string
	ID         string
	Data       json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Decode unmarshals the document body into v.
func (d *Document) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", d.Collection, d.ID, err)
	}
	return nil
}

// Filter matches documents whose top-level field equals Value, compared by
// JSON representation.
type Filter struct {
	Field string
	Value any
}

func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

type OrderBy struct {
	Field string
	Desc  bool
}

type Query struct {
	Filters []Filter
	OrderBy *OrderBy
	Limit   int
}

type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	CreateIfAbsent(
		ctx context.Context,
		collection, id string,
		data any,
	) (bool, error)
	Add(ctx context.Context, collection string, data any) (string, error)
	Update(
		ctx context.Context,
		collection, id string,
		fields map[string]any,
	) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Count(ctx context.Context, collection string, filters ...Filter) (int, error)
	Ping(ctx context.Context) error
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validField(name string) error {
	if !fieldPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	return nil
}

func validQuery(q Query) error {
	for _, f := range q.Filters {
		if err := validField(f.Field); err != nil {
			return err
		}
	}
	if q.OrderBy != nil {
		if err := validField(q.OrderBy.Field); err != nil {
			return err
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("negative limit %d", q.Limit)
	}
	return nil
}

func encode(data any) (json.RawMessage, error) {
	if raw, ok := data.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if len(b) == 0 || b[0] != '{' {
		return nil, fmt.Errorf("encode document: body must be a JSON object")
	}
	return b, nil
}
