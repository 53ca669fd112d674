// AngelaMos | 2026
// provider_test.go

package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpro-edu/smartpro/internal/core"
)

func TestProvider_CredentialLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newProviderFixture(t)

	h, err := f.provider.CreateCredential(ctx, "  Siti@School.id ", "secret12")
	require.NoError(t, err)
	assert.Equal(t, "siti@school.id", h.Email)
	assert.NotEmpty(t, h.ID)

	got, err := f.provider.VerifyCredential(ctx, "SITI@school.id", "secret12")
	require.NoError(t, err)
	assert.Equal(t, h.ID, got.ID)

	_, err = f.provider.VerifyCredential(ctx, "siti@school.id", "wrong-secret")
	assert.ErrorIs(t, err, core.ErrInvalidCredential)

	_, err = f.provider.VerifyCredential(ctx, "nobody@school.id", "secret12")
	assert.ErrorIs(t, err, core.ErrInvalidCredential)

	_, err = f.provider.CreateCredential(ctx, "siti@school.id", "another1")
	assert.ErrorIs(t, err, core.ErrDuplicateIdentity)

	_, err = f.provider.CreateCredential(ctx, "short@school.id", "abc")
	assert.ErrorIs(t, err, core.ErrWeakCredential)

	found, err := f.provider.LookupHandle(ctx, "siti@school.id")
	require.NoError(t, err)
	assert.Equal(t, h.ID, found.ID)

	_, err = f.provider.LookupHandle(ctx, "short@school.id")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestProvider_VerifyRehashesWeakerHash(t *testing.T) {
	ctx := context.Background()
	f := newProviderFixture(t)

	old := NewHasher(HashParams{Time: 1, Memory: 512, Threads: 1, KeyLen: 16, SaltLen: 8})
	hash, err := old.Hash("secret12")
	require.NoError(t, err)
	require.NoError(t, f.creds.Create(ctx, &Credential{ID: "c1", Email: "a@x.com", PasswordHash: hash}))

	_, err = f.provider.VerifyCredential(ctx, "a@x.com", "secret12")
	require.NoError(t, err)

	stored, err := f.creds.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, stored.PasswordHash)
	assert.Contains(t, stored.PasswordHash, "m=1024,")
}

func TestProvider_StartSessionIssuesVerifiableTokens(t *testing.T) {
	ctx := context.Background()
	f := newProviderFixture(t)
	h := &Handle{ID: "id-1", Email: "a@x.com"}
	events := f.record(h.ID)

	tokens, err := f.provider.StartSession(ctx, h, SessionClaims{Role: "teacher", Status: "active"}, "ua", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Positive(t, tokens.ExpiresIn)

	claims, err := f.provider.VerifyAccessToken(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "id-1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "teacher", claims.Role)
	assert.Equal(t, "active", claims.Status)
	assert.Equal(t, tokens.SessionID, claims.SessionID)

	got := events()
	require.Len(t, got, 1)
	assert.Equal(t, SignedIn, got[0].Kind)
	assert.Equal(t, tokens.SessionID, got[0].SessionID)
	assert.Equal(t, h, got[0].Handle())

	_, err = f.provider.VerifyAccessToken(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestProvider_RefreshRotatesAndDetectsReuse(t *testing.T) {
	ctx := context.Background()
	f := newProviderFixture(t)
	h, err := f.provider.CreateCredential(ctx, "a@x.com", "secret12")
	require.NoError(t, err)
	events := f.record(h.ID)

	first, err := f.provider.StartSession(ctx, h, SessionClaims{Role: "student", Status: "active"}, "", "")
	require.NoError(t, err)

	second, err := f.provider.Refresh(ctx, first.RefreshToken, studentClaims, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, first.SessionID, second.SessionID)

	_, err = f.provider.Refresh(ctx, first.RefreshToken, studentClaims, "", "")
	require.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = f.provider.Refresh(ctx, second.RefreshToken, studentClaims, "", "")
	require.ErrorIs(t, err, core.ErrTokenRevoked)

	got := events()
	require.Len(t, got, 2)
	assert.Equal(t, SignedOut, got[1].Kind)
	assert.Equal(t, first.SessionID, got[1].SessionID)

	_, err = f.provider.Refresh(ctx, "unknown", studentClaims, "", "")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestProvider_RefreshRevokesIneligibleSession(t *testing.T) {
	ctx := context.Background()
	f := newProviderFixture(t)
	h, err := f.provider.CreateCredential(ctx, "t@x.com", "secret12")
	require.NoError(t, err)

	tokens, err := f.provider.StartSession(ctx, h, SessionClaims{Role: "teacher", Status: "active"}, "", "")
	require.NoError(t, err)

	rejected := claimsFunc(func(context.Context, *Handle) (SessionClaims, error) {
		return SessionClaims{}, core.ErrAccountRejected
	})
	_, err = f.provider.Refresh(ctx, tokens.RefreshToken, rejected, "", "")
	require.ErrorIs(t, err, core.ErrAccountRejected)

	active, err := f.provider.ListSessions(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestProvider_EndSession(t *testing.T) {
	ctx := context.Background()
	f := newProviderFixture(t)
	h, err := f.provider.CreateCredential(ctx, "a@x.com", "secret12")
	require.NoError(t, err)

	tokens, err := f.provider.StartSession(ctx, h, SessionClaims{Role: "student", Status: "active"}, "", "")
	require.NoError(t, err)
	claims, err := f.provider.VerifyAccessToken(ctx, tokens.AccessToken)
	require.NoError(t, err)

	events := f.record(h.ID)
	require.NoError(t, f.provider.EndSession(ctx, claims))

	_, err = f.provider.VerifyAccessToken(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = f.provider.Refresh(ctx, tokens.RefreshToken, studentClaims, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	got := events()
	require.Len(t, got, 1)
	assert.Equal(t, SignedOut, got[0].Kind)
	assert.True(t, got[0].Covers(tokens.SessionID))
	assert.False(t, got[0].Covers("other"))

	assert.ErrorIs(t, f.provider.EndSession(ctx, nil), core.ErrUnauthorized)
}

func TestProvider_EndAllSessions(t *testing.T) {
	ctx := context.Background()
	f := newProviderFixture(t)
	h, err := f.provider.CreateCredential(ctx, "a@x.com", "secret12")
	require.NoError(t, err)

	for range 2 {
		_, err = f.provider.StartSession(ctx, h, SessionClaims{Role: "student", Status: "active"}, "", "")
		require.NoError(t, err)
	}

	active, err := f.provider.ListSessions(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, active, 2)

	events := f.record(h.ID)
	require.NoError(t, f.provider.EndAllSessions(ctx, h.ID, nil))

	active, err = f.provider.ListSessions(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	got := events()
	require.Len(t, got, 1)
	assert.Empty(t, got[0].SessionID)
	assert.True(t, got[0].Covers("any"))
}

func TestProvider_RevokeSessionRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	f := newProviderFixture(t)

	mine, err := f.provider.StartSession(ctx, &Handle{ID: "me"}, SessionClaims{}, "", "")
	require.NoError(t, err)
	theirs, err := f.provider.StartSession(ctx, &Handle{ID: "them"}, SessionClaims{}, "", "")
	require.NoError(t, err)

	err = f.provider.RevokeSession(ctx, "me", theirs.SessionID)
	require.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, f.provider.RevokeSession(ctx, "me", mine.SessionID))

	active, err := f.provider.ListSessions(ctx, "them")
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestProvider_PruneSessions(t *testing.T) {
	ctx := context.Background()
	f := newProviderFixture(t)
	f.provider.refreshTTL = -time.Hour

	_, err := f.provider.StartSession(ctx, &Handle{ID: "me"}, SessionClaims{}, "", "")
	require.NoError(t, err)

	n, err := f.provider.PruneSessions(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
