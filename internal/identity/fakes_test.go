// AngelaMos | 2026
// fakes_test.go

package identity

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smartpro-edu/smartpro/internal/config"
	"github.com/smartpro-edu/smartpro/internal/core"
)

var testHashParams = HashParams{
	Time:    1,
	Memory:  1024,
	Threads: 1,
	KeyLen:  16,
	SaltLen: 8,
}

type memCredentials struct {
	mu   sync.Mutex
	byID map[string]*Credential
}

func newMemCredentials() *memCredentials {
	return &memCredentials{byID: make(map[string]*Credential)}
}

func (m *memCredentials) Create(_ context.Context, c *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.byID {
		if strings.EqualFold(existing.Email, c.Email) {
			return fmt.Errorf("create credential: %w", core.ErrDuplicateIdentity)
		}
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCredentials) GetByEmail(_ context.Context, email string) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.byID {
		if strings.EqualFold(c.Email, email) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get credential: %w", core.ErrNotFound)
}

func (m *memCredentials) GetByID(_ context.Context, id string) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("get credential: %w", core.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (m *memCredentials) UpdateHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("update credential: %w", core.ErrNotFound)
	}
	c.PasswordHash = hash
	return nil
}

type memSessions struct {
	mu   sync.Mutex
	byID map[string]*Session
}

func newMemSessions() *memSessions {
	return &memSessions{byID: make(map[string]*Session)}
}

func (m *memSessions) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.CreatedAt = time.Now()
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *memSessions) FindByHash(_ context.Context, hash string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.byID {
		if s.TokenHash == hash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find session: %w", core.ErrNotFound)
}

func (m *memSessions) MarkAsUsed(_ context.Context, id, replacedByID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[id]
	if !ok || s.IsUsed || s.RevokedAt != nil {
		return fmt.Errorf("mark session used: %w", core.ErrNotFound)
	}
	now := time.Now()
	s.IsUsed = true
	s.UsedAt = &now
	s.ReplacedByID = &replacedByID
	return nil
}

func (m *memSessions) revokeWhere(match func(*Session) bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var n int64
	for _, s := range m.byID {
		if s.RevokedAt == nil && match(s) {
			s.RevokedAt = &now
			n++
		}
	}
	return n
}

func (m *memSessions) RevokeFamily(_ context.Context, familyID string) (int64, error) {
	return m.revokeWhere(func(s *Session) bool { return s.FamilyID == familyID }), nil
}

func (m *memSessions) RevokeAllForIdentity(_ context.Context, identityID string) (int64, error) {
	return m.revokeWhere(func(s *Session) bool { return s.IdentityID == identityID }), nil
}

func (m *memSessions) ListActive(_ context.Context, identityID string) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var out []Session
	for _, s := range m.byID {
		if s.IdentityID == identityID && s.RevokedAt == nil && !s.IsUsed && s.ExpiresAt.After(now) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memSessions) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, s := range m.byID {
		if s.ExpiresAt.Before(before) {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

type memRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newMemRevoker() *memRevoker {
	return &memRevoker{revoked: make(map[string]time.Time)}
}

func (r *memRevoker) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Until(expiresAt) > 0 {
		r.revoked[tokenID] = expiresAt
	}
	return nil
}

func (r *memRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[tokenID]
	return ok, nil
}

type claimsFunc func(ctx context.Context, h *Handle) (SessionClaims, error)

func (f claimsFunc) SessionClaims(ctx context.Context, h *Handle) (SessionClaims, error) {
	return f(ctx, h)
}

var studentClaims = claimsFunc(func(context.Context, *Handle) (SessionClaims, error) {
	return SessionClaims{Role: "student", Status: "active"}, nil
})

func testJWTConfig(t *testing.T) config.JWTConfig {
	t.Helper()

	dir := t.TempDir()
	cfg := config.JWTConfig{
		PrivateKeyPath:     filepath.Join(dir, "keys", "private.pem"),
		PublicKeyPath:      filepath.Join(dir, "keys", "public.pem"),
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "smartpro-test",
		Audience:           "smartpro",
	}
	require.NoError(t, GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath, false))
	return cfg
}

type providerFixture struct {
	provider *Provider
	creds    *memCredentials
	sessions *memSessions
	revoker  *memRevoker
	notifier *LocalNotifier
}

func newProviderFixture(t *testing.T) *providerFixture {
	t.Helper()

	cfg := testJWTConfig(t)
	tokens, err := NewJWTManager(cfg)
	require.NoError(t, err)

	f := &providerFixture{
		creds:    newMemCredentials(),
		sessions: newMemSessions(),
		revoker:  newMemRevoker(),
		notifier: NewLocalNotifier(),
	}
	f.provider = NewProvider(ProviderConfig{
		Credentials:     f.creds,
		Sessions:        f.sessions,
		Tokens:          tokens,
		Revoker:         f.revoker,
		Notifier:        f.notifier,
		Hasher:          NewHasher(testHashParams),
		Policy:          Policy{MinLength: 6, MaxLength: 128},
		RefreshTokenTTL: cfg.RefreshTokenExpire,
	})
	return f
}

// record collects events for one identity.
func (f *providerFixture) record(identityID string) func() []Event {
	var mu sync.Mutex
	var events []Event
	f.notifier.Subscribe(identityID, func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})
	return func() []Event {
		mu.Lock()
		defer mu.Unlock()
		return append([]Event(nil), events...)
	}
}
