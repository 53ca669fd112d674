// AngelaMos | 2026
// events.go

package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

// Event is an authentication state change for one identity. SessionID is
// empty when the change covers every session of the identity.
type Event struct {
	Kind       EventKind `json:"kind"`
	IdentityID string    `json:"identity_id"`
	Email      string    `json:"email,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	At         time.Time `json:"at"`
}

// Handle returns the signed-in identity, or nil for sign-out events.
func (e Event) Handle() *Handle {
	if e.Kind != SignedIn {
		return nil
	}
	return &Handle{ID: e.IdentityID, Email: e.Email}
}

// Covers reports whether the event applies to the given session.
func (e Event) Covers(sessionID string) bool {
	return e.SessionID == "" || e.SessionID == sessionID
}

type Notifier interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(identityID string, fn func(Event)) (unsubscribe func())
}

// LocalNotifier delivers events in process. Callbacks run on the
// publishing goroutine and must not block.
type LocalNotifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func(Event)
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{subs: make(map[string]map[int]func(Event))}
}

func (n *LocalNotifier) Publish(_ context.Context, ev Event) error {
	n.dispatch(ev)
	return nil
}

func (n *LocalNotifier) Subscribe(identityID string, fn func(Event)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	if n.subs[identityID] == nil {
		n.subs[identityID] = make(map[int]func(Event))
	}
	n.subs[identityID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs[identityID], id)
			if len(n.subs[identityID]) == 0 {
				delete(n.subs, identityID)
			}
		})
	}
}

func (n *LocalNotifier) Subscribers(identityID string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[identityID])
}

func (n *LocalNotifier) dispatch(ev Event) {
	n.mu.RLock()
	fns := make([]func(Event), 0, len(n.subs[ev.IdentityID]))
	for _, fn := range n.subs[ev.IdentityID] {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// RedisNotifier fans events out across API instances over a Redis Pub/Sub
// channel. Every instance, including the publisher, receives events
// through Run.
type RedisNotifier struct {
	local   *LocalNotifier
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

func NewRedisNotifier(
	client redis.UniversalClient,
	channel string,
	logger *slog.Logger,
) *RedisNotifier {
	return &RedisNotifier{
		local:   NewLocalNotifier(),
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (n *RedisNotifier) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}

func (n *RedisNotifier) Subscribe(identityID string, fn func(Event)) func() {
	return n.local.Subscribe(identityID, fn)
}

// Run relays channel messages to local subscribers until ctx is done.
func (n *RedisNotifier) Run(ctx context.Context) error {
	pubsub := n.client.Subscribe(ctx, n.channel)
	defer pubsub.Close() //nolint:errcheck // best-effort close on shutdown

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", n.channel, err)
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				n.logger.Warn("dropping malformed identity event",
					"channel", n.channel,
					"error", err,
				)
				continue
			}
			n.local.dispatch(ev)
		}
	}
}
