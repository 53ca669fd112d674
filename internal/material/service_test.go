// AngelaMos | 2026
// service_test.go

package material

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/docstore"
)

var (
	teacherA = &account.Account{ID: "t-a", Role: account.RoleTeacher, Status: account.StatusActive}
	teacherB = &account.Account{ID: "t-b", Role: account.RoleTeacher, Status: account.StatusActive}
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(NewRepository(docstore.NewMemoryStore(), nil))
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	n := 0
	svc.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return svc
}

func TestService_PublishAndList(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	first, err := svc.Publish(ctx, teacherA, NewMaterial{
		Title:   "  Kinematics  ",
		FileURL: "https://cdn.smartpro.test/kinematics.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "Kinematics", first.Title)
	assert.Equal(t, "t-a", first.TeacherID)

	_, err = svc.Publish(ctx, teacherB, NewMaterial{
		Title:    "Algebra",
		VideoURL: "https://video.smartpro.test/algebra",
	})
	require.NoError(t, err)

	second, err := svc.Publish(ctx, teacherA, NewMaterial{
		Title:    "Dynamics",
		VideoURL: "https://video.smartpro.test/dynamics",
	})
	require.NoError(t, err)

	own, err := svc.ListOwn(ctx, "t-a")
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, second.ID, own[0].ID)
	assert.Equal(t, first.ID, own[1].ID)

	all, err := svc.ListAll(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := svc.ListAll(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.ID, limited[0].ID)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestService_PublishRejects(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	student := &account.Account{ID: "s", Role: account.RoleStudent}
	_, err := svc.Publish(ctx, student, NewMaterial{Title: "x", FileURL: "https://a.test/x"})
	require.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Publish(ctx, nil, NewMaterial{Title: "x", FileURL: "https://a.test/x"})
	require.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Publish(ctx, teacherA, NewMaterial{Title: "   ", FileURL: "https://a.test/x"})
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Publish(ctx, teacherA, NewMaterial{Title: "No links"})
	require.ErrorIs(t, err, core.ErrInvalidInput)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
