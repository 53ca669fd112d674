// AngelaMos | 2026
// fakes_test.go

package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/docstore"
	"github.com/smartpro-edu/smartpro/internal/identity"
	"github.com/smartpro-edu/smartpro/internal/middleware"
)

type fakeCredential struct {
	id     string
	email  string
	secret string
}

type fakeProvider struct {
	mu        sync.Mutex
	creds     map[string]fakeCredential
	refresh   map[string]*identity.Handle
	nextID    int
	started   []identity.SessionClaims
	ended     []*middleware.AccessTokenClaims
	createErr error
	notifier  *identity.LocalNotifier
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		creds:    make(map[string]fakeCredential),
		refresh:  make(map[string]*identity.Handle),
		notifier: identity.NewLocalNotifier(),
	}
}

// addCredential registers an identity without going through the policy.
func (p *fakeProvider) addCredential(email, secret string) *identity.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addLocked(email, secret)
}

func (p *fakeProvider) addLocked(email, secret string) *identity.Handle {
	p.nextID++
	c := fakeCredential{
		id:     fmt.Sprintf("uid-%d", p.nextID),
		email:  strings.ToLower(email),
		secret: secret,
	}
	p.creds[c.email] = c
	return &identity.Handle{ID: c.id, Email: c.email}
}

func (p *fakeProvider) VerifyCredential(
	_ context.Context,
	email, secret string,
) (*identity.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.creds[strings.ToLower(email)]
	if !ok || c.secret != secret {
		return nil, fmt.Errorf("verify credential: %w", core.ErrInvalidCredential)
	}
	return &identity.Handle{ID: c.id, Email: c.email}, nil
}

func (p *fakeProvider) CreateCredential(
	_ context.Context,
	email, secret string,
) (*identity.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.createErr != nil {
		return nil, p.createErr
	}
	if len(secret) < 6 {
		return nil, fmt.Errorf("create credential: %w", core.ErrWeakCredential)
	}
	if _, ok := p.creds[strings.ToLower(email)]; ok {
		return nil, fmt.Errorf("create credential: %w", core.ErrDuplicateIdentity)
	}
	return p.addLocked(email, secret), nil
}

func (p *fakeProvider) StartSession(
	_ context.Context,
	h *identity.Handle,
	claims identity.SessionClaims,
	_, _ string,
) (*identity.Tokens, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started = append(p.started, claims)
	n := len(p.started)
	refresh := fmt.Sprintf("refresh-%s-%d", h.ID, n)
	p.refresh[refresh] = h

	return &identity.Tokens{
		AccessToken:  fmt.Sprintf("access-%s-%d", h.ID, n),
		RefreshToken: refresh,
		SessionID:    fmt.Sprintf("sess-%s-%d", h.ID, n),
		ExpiresAt:    time.Now().Add(15 * time.Minute),
		ExpiresIn:    15 * time.Minute,
	}, nil
}

func (p *fakeProvider) Refresh(
	ctx context.Context,
	refreshToken string,
	source identity.ClaimsSource,
	userAgent, ipAddress string,
) (*identity.Tokens, error) {
	p.mu.Lock()
	h, ok := p.refresh[refreshToken]
	delete(p.refresh, refreshToken)
	p.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
	}

	claims, err := source.SessionClaims(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return p.StartSession(ctx, h, claims, userAgent, ipAddress)
}

func (p *fakeProvider) EndSession(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) error {
	if claims == nil {
		return fmt.Errorf("end session: %w", core.ErrUnauthorized)
	}

	p.mu.Lock()
	p.ended = append(p.ended, claims)
	p.mu.Unlock()

	return p.notifier.Publish(ctx, identity.Event{
		Kind:       identity.SignedOut,
		IdentityID: claims.UserID,
		SessionID:  claims.SessionID,
	})
}

func (p *fakeProvider) EndAllSessions(
	ctx context.Context,
	identityID string,
	claims *middleware.AccessTokenClaims,
) error {
	p.mu.Lock()
	p.ended = append(p.ended, claims)
	p.mu.Unlock()

	return p.notifier.Publish(ctx, identity.Event{
		Kind:       identity.SignedOut,
		IdentityID: identityID,
	})
}

func (p *fakeProvider) ListSessions(
	_ context.Context,
	identityID string,
) ([]identity.Session, error) {
	now := time.Now()
	return []identity.Session{
		{ID: "r1", IdentityID: identityID, FamilyID: "fam-1", CreatedAt: now.Add(-time.Hour)},
		{ID: "r2", IdentityID: identityID, FamilyID: "fam-1", CreatedAt: now, UserAgent: "newest"},
		{ID: "r3", IdentityID: identityID, FamilyID: "fam-2", CreatedAt: now},
	}, nil
}

func (p *fakeProvider) RevokeSession(_ context.Context, _, sessionID string) error {
	if sessionID != "fam-1" {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}
	return nil
}

func (p *fakeProvider) Subscribe(identityID string, fn func(identity.Event)) func() {
	return p.notifier.Subscribe(identityID, fn)
}

func (p *fakeProvider) sessionsStarted() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.started)
}

// countingStore counts document writes.
type countingStore struct {
	docstore.Store
	mu     sync.Mutex
	writes int
}

func (c *countingStore) count() {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
}

func (c *countingStore) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func (c *countingStore) CreateIfAbsent(
	ctx context.Context,
	collection, id string,
	data any,
) (bool, error) {
	c.count()
	return c.Store.CreateIfAbsent(ctx, collection, id, data)
}

func (c *countingStore) Add(ctx context.Context, collection string, data any) (string, error) {
	c.count()
	return c.Store.Add(ctx, collection, data)
}

func (c *countingStore) Update(
	ctx context.Context,
	collection, id string,
	fields map[string]any,
) error {
	c.count()
	return c.Store.Update(ctx, collection, id, fields)
}
