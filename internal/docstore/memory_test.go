// AngelaMos | 2026
// memory_test.go

package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Status string `json:"status"`
	Rank   int    `json:"rank,omitempty"`
}

func steppedClock() func() time.Time {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func newTestStore() *MemoryStore {
	s := NewMemoryStore()
	s.now = steppedClock()
	return s
}

func TestMemoryStore_GetAbsent(t *testing.T) {
	s := newTestStore()

	_, err := s.Get(context.Background(), "users", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAbsent)
}

func TestMemoryStore_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	created, err := s.CreateIfAbsent(ctx, "users", "u1", profile{Name: "first"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.CreateIfAbsent(ctx, "users", "u1", profile{Name: "second"})
	require.NoError(t, err)
	assert.False(t, created)

	doc, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)

	var got profile
	require.NoError(t, doc.Decode(&got))
	assert.Equal(t, "first", got.Name)
}

func TestMemoryStore_CollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.CreateIfAbsent(ctx, "users", "same", profile{Name: "user"})
	require.NoError(t, err)

	created, err := s.CreateIfAbsent(ctx, "materials", "same", profile{Name: "material"})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.CreateIfAbsent(ctx, "users", "u1",
		profile{Name: "t", Role: "teacher", Status: "pending"})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "users", "u1", map[string]any{"status": "active"}))

	doc, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)

	var got profile
	require.NoError(t, doc.Decode(&got))
	assert.Equal(t, "active", got.Status)
	assert.Equal(t, "teacher", got.Role)
	assert.True(t, doc.UpdatedAt.After(doc.CreatedAt))
}

func TestMemoryStore_UpdateAbsent(t *testing.T) {
	s := newTestStore()

	err := s.Update(context.Background(), "users", "ghost", map[string]any{"status": "active"})
	assert.ErrorIs(t, err, ErrAbsent)
}

func TestMemoryStore_UpdateRejectsBadField(t *testing.T) {
	s := newTestStore()

	err := s.Update(context.Background(), "users", "u1", map[string]any{"a'b": 1})
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestMemoryStore_QueryFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	seed := []struct {
		id string
		p  profile
	}{
		{"t1", profile{Name: "old", Role: "teacher", Status: "pending"}},
		{"t2", profile{Name: "active", Role: "teacher", Status: "active"}},
		{"s1", profile{Name: "student", Role: "student", Status: "pending"}},
		{"t3", profile{Name: "new", Role: "teacher", Status: "pending"}},
	}
	for _, d := range seed {
		_, err := s.CreateIfAbsent(ctx, "users", d.id, d.p)
		require.NoError(t, err)
	}

	docs, err := s.Query(ctx, "users", Query{
		Filters: []Filter{Where("role", "teacher"), Where("status", "pending")},
		OrderBy: &OrderBy{Field: FieldCreatedAt, Desc: true},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "t3", docs[0].ID)
	assert.Equal(t, "t1", docs[1].ID)

	limited, err := s.Query(ctx, "users", Query{
		Filters: []Filter{Where("role", "teacher")},
		Limit:   1,
	})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "t1", limited[0].ID)
}

func TestMemoryStore_QueryOrderByField(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	for _, p := range []profile{{Name: "b", Rank: 2}, {Name: "a", Rank: 3}, {Name: "c", Rank: 1}} {
		_, err := s.Add(ctx, "ranked", p)
		require.NoError(t, err)
	}

	docs, err := s.Query(ctx, "ranked", Query{OrderBy: &OrderBy{Field: "rank"}})
	require.NoError(t, err)
	require.Len(t, docs, 3)

	names := make([]string, 0, len(docs))
	for _, d := range docs {
		var p profile
		require.NoError(t, d.Decode(&p))
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"c", "b", "a"}, names)
}

func TestMemoryStore_NumericFilterMatchesDecodedValue(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.Add(ctx, "ranked", profile{Name: "x", Rank: 7})
	require.NoError(t, err)

	n, err := s.Count(ctx, "ranked", Where("rank", 7))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryStore_Count(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	for i := 0; i < 3; i++ {
		_, err := s.Add(ctx, "users", profile{Role: "student"})
		require.NoError(t, err)
	}
	_, err := s.Add(ctx, "users", profile{Role: "teacher"})
	require.NoError(t, err)

	students, err := s.Count(ctx, "users", Where("role", "student"))
	require.NoError(t, err)
	assert.Equal(t, 3, students)

	all, err := s.Count(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, 4, all)
}

func TestMemoryStore_FailWith(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	s.FailWith(errors.New("connection reset"))

	_, err := s.Get(ctx, "users", "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrAbsent)

	_, err = s.CreateIfAbsent(ctx, "users", "u1", profile{})
	assert.ErrorIs(t, err, ErrUnavailable)

	s.FailWith(nil)
	assert.NoError(t, s.Ping(ctx))
}

func TestMemoryStore_RejectsNonObjectBody(t *testing.T) {
	_, err := newTestStore().Add(context.Background(), "users", []string{"a"})
	assert.Error(t, err)
}
