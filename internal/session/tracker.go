// AngelaMos | 2026
// tracker.go

// Package session keeps the current account of one signed-in session in
// step with identity provider events.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/identity"
)

type Source interface {
	Subscribe(identityID string, fn func(identity.Event)) (unsubscribe func())
}

type Resolver interface {
	Current(ctx context.Context, h *identity.Handle) (*account.Account, error)
}

// State is a snapshot of the tracked session. Loading is set while an
// event is being resolved. A settled state with neither Account nor Err
// means signed out.
type State struct {
	Loading bool
	Account *account.Account
	Err     error
}

func (s State) SignedOut() bool {
	return !s.Loading && s.Account == nil && s.Err == nil
}

const watchBuffer = 4

// Tracker resolves events one at a time in arrival order. Each event
// produces a Loading state followed by exactly one settled state.
type Tracker struct {
	source     Source
	resolver   Resolver
	identityID string
	sessionID  string
	logger     *slog.Logger

	mu          sync.Mutex
	state       State
	watchers    map[int]chan State
	nextWatcher int
	pending     []identity.Event
	wake        chan struct{}
	unsubscribe func()
	cancel      context.CancelFunc
	started     bool
	stopped     bool
	done        chan struct{}
}

// NewTracker follows one session of identityID. An empty sessionID
// follows every session of the identity.
func NewTracker(
	source Source,
	resolver Resolver,
	identityID, sessionID string,
	logger *slog.Logger,
) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}

	return &Tracker{
		source:     source,
		resolver:   resolver,
		identityID: identityID,
		sessionID:  sessionID,
		logger:     logger,
		state:      State{Loading: true},
		watchers:   make(map[int]chan State),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Init subscribes to provider events and resolves the initial identity.
// A nil initial handle starts the session signed out. Calling Init more
// than once has no effect.
func (t *Tracker) Init(ctx context.Context, initial *identity.Handle) {
	t.mu.Lock()
	if t.started || t.stopped {
		t.mu.Unlock()
		return
	}
	t.started = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()

	first := identity.Event{
		Kind:       identity.SignedOut,
		IdentityID: t.identityID,
		SessionID:  t.sessionID,
	}
	if initial != nil {
		first.Kind = identity.SignedIn
		first.Email = initial.Email
	}
	t.Update(first)

	unsubscribe := t.source.Subscribe(t.identityID, t.Update)

	t.mu.Lock()
	t.unsubscribe = unsubscribe
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		unsubscribe()
	}

	go t.run(ctx)
}

// Update queues a provider event. It never blocks, so it is safe to call
// from a notifier callback.
func (t *Tracker) Update(ev identity.Event) {
	if ev.IdentityID != t.identityID || !ev.Covers(t.sessionID) {
		return
	}

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.pending = append(t.pending, ev)
	t.mu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Teardown unsubscribes, stops resolution and closes every watch channel.
// It waits for an in-flight resolution to finish.
func (t *Tracker) Teardown() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	started := t.started
	unsubscribe := t.unsubscribe
	cancel := t.cancel
	t.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	if started {
		<-t.done
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for id, ch := range t.watchers {
		close(ch)
		delete(t.watchers, id)
	}
}

func (t *Tracker) Current() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Watch returns a channel that first carries the current state and then
// every later one. A slow reader loses intermediate states, never the
// latest. The channel is closed by stop or Teardown.
func (t *Tracker) Watch() (<-chan State, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan State, watchBuffer)
	if t.stopped {
		close(ch)
		return ch, func() {}
	}

	t.nextWatcher++
	id := t.nextWatcher
	t.watchers[id] = ch
	offer(ch, t.state)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if c, ok := t.watchers[id]; ok {
				close(c)
				delete(t.watchers, id)
			}
		})
	}
	return ch, stop
}

func (t *Tracker) run(ctx context.Context) {
	defer close(t.done)

	for {
		ev, ok := t.next()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-t.wake:
				continue
			}
		}

		if ctx.Err() != nil {
			return
		}
		t.resolve(ctx, ev)
	}
}

func (t *Tracker) next() (identity.Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.pending) == 0 {
		return identity.Event{}, false
	}
	ev := t.pending[0]
	t.pending = t.pending[1:]
	return ev, true
}

func (t *Tracker) resolve(ctx context.Context, ev identity.Event) {
	t.set(State{Loading: true})

	h := ev.Handle()
	if h == nil {
		t.set(State{})
		return
	}

	a, err := t.resolver.Current(ctx, h)
	if err != nil {
		t.logger.WarnContext(ctx, "session account resolution failed",
			"identity_id", t.identityID,
			"session_id", t.sessionID,
			"error", err,
		)
		t.set(State{Err: err})
		return
	}
	t.set(State{Account: a})
}

func (t *Tracker) set(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = s
	for _, ch := range t.watchers {
		offer(ch, s)
	}
}

// offer sends without blocking, dropping the oldest buffered state when
// the channel is full. Callers hold t.mu.
func offer(ch chan State, s State) {
	select {
	case ch <- s:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- s:
	default:
	}
}
