// AngelaMos | 2026
// memory.go

package docstore

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryDoc struct {
	seq       uint64
	data      map[string]any
	createdAt time.Time
	updatedAt time.Time
}

// MemoryStore is a process-local Store with the same matching and ordering
// rules as PostgresStore.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*memoryDoc
	seq         uint64
	now         func() time.Time
	failWith    error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*memoryDoc),
		now:         time.Now,
	}
}

// FailWith makes every subsequent call return err wrapped with
// ErrUnavailable. Passing nil restores normal operation.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *MemoryStore) failure(op string) error {
	if s.failWith == nil {
		return nil
	}
	return unavailable(op, s.failWith)
}

func (s *MemoryStore) Get(
	_ context.Context,
	collection, id string,
) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failure("get"); err != nil {
		return nil, err
	}

	d, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("docstore get %s/%s: %w", collection, id, ErrAbsent)
	}

	doc, err := d.document(collection, id)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *MemoryStore) CreateIfAbsent(
	_ context.Context,
	collection, id string,
	data any,
) (bool, error) {
	body, err := toMap(data)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failure("create"); err != nil {
		return false, err
	}

	if _, exists := s.collections[collection][id]; exists {
		return false, nil
	}

	s.insert(collection, id, body)
	return true, nil
}

func (s *MemoryStore) Add(
	_ context.Context,
	collection string,
	data any,
) (string, error) {
	body, err := toMap(data)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failure("add"); err != nil {
		return "", err
	}

	id := uuid.New().String()
	s.insert(collection, id, body)
	return id, nil
}

func (s *MemoryStore) Update(
	_ context.Context,
	collection, id string,
	fields map[string]any,
) error {
	for name := range fields {
		if err := validField(name); err != nil {
			return err
		}
	}

	patch, err := toMap(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failure("update"); err != nil {
		return err
	}

	d, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("docstore update %s/%s: %w", collection, id, ErrAbsent)
	}

	for k, v := range patch {
		d.data[k] = v
	}
	d.updatedAt = s.now()

	return nil
}

func (s *MemoryStore) Query(
	_ context.Context,
	collection string,
	q Query,
) ([]Document, error) {
	if err := validQuery(q); err != nil {
		return nil, err
	}

	filters, err := normalizeFilters(q.Filters)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failure("query"); err != nil {
		return nil, err
	}

	type hit struct {
		id  string
		doc *memoryDoc
	}

	var hits []hit
	for id, d := range s.collections[collection] {
		if d.matches(filters) {
			hits = append(hits, hit{id: id, doc: d})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		return less(hits[i].doc, hits[j].doc, q.OrderBy)
	})

	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	docs := make([]Document, 0, len(hits))
	for _, h := range hits {
		doc, err := h.doc.document(collection, h.id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (s *MemoryStore) Count(
	_ context.Context,
	collection string,
	filters ...Filter,
) (int, error) {
	if err := validQuery(Query{Filters: filters}); err != nil {
		return 0, err
	}

	normalized, err := normalizeFilters(filters)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failure("count"); err != nil {
		return 0, err
	}

	count := 0
	for _, d := range s.collections[collection] {
		if d.matches(normalized) {
			count++
		}
	}

	return count, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failure("ping")
}

func (s *MemoryStore) insert(collection, id string, body map[string]any) {
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]*memoryDoc)
	}

	s.seq++
	now := s.now()
	s.collections[collection][id] = &memoryDoc{
		seq:       s.seq,
		data:      body,
		createdAt: now,
		updatedAt: now,
	}
}

func (d *memoryDoc) document(collection, id string) (Document, error) {
	raw, err := json.Marshal(d.data)
	if err != nil {
		return Document{}, fmt.Errorf("docstore encode %s/%s: %w", collection, id, err)
	}
	return Document{
		Collection: collection,
		ID:         id,
		Data:       raw,
		CreatedAt:  d.createdAt,
		UpdatedAt:  d.updatedAt,
	}, nil
}

func (d *memoryDoc) matches(filters []Filter) bool {
	for _, f := range filters {
		v, ok := d.data[f.Field]
		if !ok || !reflect.DeepEqual(v, f.Value) {
			return false
		}
	}
	return true
}

func less(a, b *memoryDoc, o *OrderBy) bool {
	if o == nil || o.Field == FieldCreatedAt {
		desc := o != nil && o.Desc
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.Before(b.createdAt) != desc
		}
		return (a.seq < b.seq) != desc
	}

	va, oka := a.data[o.Field]
	vb, okb := b.data[o.Field]
	c := compareValues(va, oka, vb, okb)
	if c == 0 {
		return (a.seq < b.seq) != o.Desc
	}
	return (c < 0) != o.Desc
}

// compareValues follows jsonb ordering (null < string < number < bool) and
// treats a missing field as larger than any value, like SQL NULL.
func compareValues(a any, aok bool, b any, bok bool) int {
	ra, rb := rank(a, aok), rank(b, bok)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch av := a.(type) {
	case string:
		return cmp.Compare(av, b.(string))
	case float64:
		return cmp.Compare(av, b.(float64))
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	}
	return 0
}

func rank(v any, present bool) int {
	if !present {
		return 5
	}
	switch v.(type) {
	case nil:
		return 0
	case string:
		return 1
	case float64:
		return 2
	case bool:
		return 3
	default:
		return 4
	}
}

// toMap round-trips data through JSON so stored values have the same shape
// as values decoded from Postgres.
func toMap(data any) (map[string]any, error) {
	raw, err := encode(data)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return m, nil
}

func normalizeFilters(filters []Filter) ([]Filter, error) {
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		raw, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encode filter %s: %w", f.Field, err)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode filter %s: %w", f.Field, err)
		}
		out = append(out, Filter{Field: f.Field, Value: v})
	}
	return out, nil
}
