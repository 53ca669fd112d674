// AngelaMos | 2026
// tracker_test.go

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/identity"
)

type stubResolver struct {
	mu    sync.Mutex
	calls int
	acc   *account.Account
	err   error
}

func (r *stubResolver) Current(
	_ context.Context,
	h *identity.Handle,
) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	a := *r.acc
	a.ID = h.ID
	return &a, nil
}

func (r *stubResolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func receive(t *testing.T, ch <-chan State) State {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session state")
		return State{}
	}
}

func settled(t *testing.T, ch <-chan State) State {
	t.Helper()
	for {
		if s := receive(t, ch); !s.Loading {
			return s
		}
	}
}

func student() *account.Account {
	return &account.Account{
		Email:  "siti@school.test",
		Role:   account.RoleStudent,
		Status: account.StatusActive,
	}
}

func TestTracker_InitResolvesSignedInIdentity(t *testing.T) {
	notifier := identity.NewLocalNotifier()
	resolver := &stubResolver{acc: student()}
	tr := NewTracker(notifier, resolver, "u1", "s1", nil)
	defer tr.Teardown()

	states, stop := tr.Watch()
	defer stop()

	first := receive(t, states)
	assert.True(t, first.Loading)

	tr.Init(context.Background(), &identity.Handle{ID: "u1", Email: "siti@school.test"})

	s := settled(t, states)
	require.NotNil(t, s.Account)
	assert.Equal(t, "u1", s.Account.ID)
	assert.NoError(t, s.Err)
	assert.Equal(t, 1, notifier.Subscribers("u1"))
}

func TestTracker_InitWithoutIdentityIsSignedOut(t *testing.T) {
	resolver := &stubResolver{acc: student()}
	tr := NewTracker(identity.NewLocalNotifier(), resolver, "u1", "s1", nil)
	defer tr.Teardown()

	states, stop := tr.Watch()
	defer stop()

	tr.Init(context.Background(), nil)

	s := settled(t, states)
	assert.True(t, s.SignedOut())
	assert.Equal(t, 0, resolver.Calls())
}

func TestTracker_SignedOutEventSettlesOnce(t *testing.T) {
	notifier := identity.NewLocalNotifier()
	tr := NewTracker(notifier, &stubResolver{acc: student()}, "u1", "s1", nil)
	defer tr.Teardown()

	states, stop := tr.Watch()
	defer stop()

	tr.Init(context.Background(), &identity.Handle{ID: "u1"})
	require.NotNil(t, settled(t, states).Account)

	require.NoError(t, notifier.Publish(context.Background(), identity.Event{
		Kind:       identity.SignedOut,
		IdentityID: "u1",
		SessionID:  "s1",
	}))

	loading := receive(t, states)
	assert.True(t, loading.Loading)
	assert.Nil(t, loading.Account)

	s := receive(t, states)
	assert.True(t, s.SignedOut())
	assert.True(t, tr.Current().SignedOut())
}

func TestTracker_IgnoresOtherSessions(t *testing.T) {
	notifier := identity.NewLocalNotifier()
	resolver := &stubResolver{acc: student()}
	tr := NewTracker(notifier, resolver, "u1", "s1", nil)
	defer tr.Teardown()

	states, stop := tr.Watch()
	defer stop()

	tr.Init(context.Background(), &identity.Handle{ID: "u1"})
	require.NotNil(t, settled(t, states).Account)

	ctx := context.Background()
	require.NoError(t, notifier.Publish(ctx, identity.Event{
		Kind:       identity.SignedOut,
		IdentityID: "u1",
		SessionID:  "s2",
	}))
	require.NoError(t, notifier.Publish(ctx, identity.Event{
		Kind:       identity.SignedOut,
		IdentityID: "u2",
	}))

	select {
	case s := <-states:
		t.Fatalf("unexpected state %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
	assert.NotNil(t, tr.Current().Account)
}

func TestTracker_SignOutEverywhereCoversSession(t *testing.T) {
	notifier := identity.NewLocalNotifier()
	tr := NewTracker(notifier, &stubResolver{acc: student()}, "u1", "s1", nil)
	defer tr.Teardown()

	states, stop := tr.Watch()
	defer stop()

	tr.Init(context.Background(), &identity.Handle{ID: "u1"})
	require.NotNil(t, settled(t, states).Account)

	require.NoError(t, notifier.Publish(context.Background(), identity.Event{
		Kind:       identity.SignedOut,
		IdentityID: "u1",
	}))

	assert.True(t, settled(t, states).SignedOut())
}

func TestTracker_ResolutionErrorIsCarried(t *testing.T) {
	storeErr := errors.Join(core.ErrStoreUnavailable, errors.New("connection refused"))
	tr := NewTracker(
		identity.NewLocalNotifier(),
		&stubResolver{err: storeErr},
		"u1",
		"s1",
		nil,
	)
	defer tr.Teardown()

	states, stop := tr.Watch()
	defer stop()

	tr.Init(context.Background(), &identity.Handle{ID: "u1"})

	s := settled(t, states)
	assert.Nil(t, s.Account)
	assert.ErrorIs(t, s.Err, core.ErrStoreUnavailable)
	assert.False(t, s.SignedOut())
}

func TestTracker_LateWatcherGetsCurrentState(t *testing.T) {
	tr := NewTracker(identity.NewLocalNotifier(), &stubResolver{acc: student()}, "u1", "s1", nil)
	defer tr.Teardown()

	early, stop := tr.Watch()
	defer stop()

	tr.Init(context.Background(), &identity.Handle{ID: "u1"})
	require.NotNil(t, settled(t, early).Account)

	late, stopLate := tr.Watch()
	defer stopLate()

	s := receive(t, late)
	assert.False(t, s.Loading)
	require.NotNil(t, s.Account)
	assert.Equal(t, "u1", s.Account.ID)
}

func TestTracker_TeardownUnsubscribesAndClosesWatchers(t *testing.T) {
	notifier := identity.NewLocalNotifier()
	tr := NewTracker(notifier, &stubResolver{acc: student()}, "u1", "s1", nil)

	states, _ := tr.Watch()
	tr.Init(context.Background(), &identity.Handle{ID: "u1"})
	settled(t, states)

	tr.Teardown()
	tr.Teardown()

	assert.Equal(t, 0, notifier.Subscribers("u1"))

	for range states {
	}

	after, _ := tr.Watch()
	_, ok := <-after
	assert.False(t, ok)
}

func TestTracker_StopClosesOnlyThatWatcher(t *testing.T) {
	tr := NewTracker(identity.NewLocalNotifier(), &stubResolver{acc: student()}, "u1", "s1", nil)
	defer tr.Teardown()

	a, stopA := tr.Watch()
	b, stopB := tr.Watch()
	defer stopB()

	stopA()
	stopA()

	for range a {
	}

	tr.Init(context.Background(), &identity.Handle{ID: "u1"})
	assert.NotNil(t, settled(t, b).Account)
}
