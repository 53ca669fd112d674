// AngelaMos | 2026
// provider.go

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/middleware"
)

// SessionClaims are the account facts embedded in access tokens.
type SessionClaims struct {
	Role   string
	Status string
}

// ClaimsSource supplies fresh claims when a session is refreshed. An
// error ends the refresh.
type ClaimsSource interface {
	SessionClaims(ctx context.Context, h *Handle) (SessionClaims, error)
}

type Tokens struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
	ExpiresAt    time.Time
	ExpiresIn    time.Duration
}

type ProviderConfig struct {
	Credentials     CredentialRepository
	Sessions        SessionRepository
	Tokens          *JWTManager
	Revoker         Revoker
	Notifier        Notifier
	Hasher          *Hasher
	Policy          Policy
	RefreshTokenTTL time.Duration
	Logger          *slog.Logger
}

// Provider is the identity service: it owns credentials, sessions and
// the tokens that represent them.
type Provider struct {
	creds      CredentialRepository
	sessions   SessionRepository
	tokens     *JWTManager
	revoker    Revoker
	notifier   Notifier
	hasher     *Hasher
	policy     Policy
	refreshTTL time.Duration
	logger     *slog.Logger
}

func NewProvider(cfg ProviderConfig) *Provider {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Provider{
		creds:      cfg.Credentials,
		sessions:   cfg.Sessions,
		tokens:     cfg.Tokens,
		revoker:    cfg.Revoker,
		notifier:   cfg.Notifier,
		hasher:     cfg.Hasher,
		policy:     cfg.Policy,
		refreshTTL: cfg.RefreshTokenTTL,
		logger:     logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *Provider) VerifyCredential(
	ctx context.Context,
	email, secret string,
) (*Handle, error) {
	cred, err := p.creds.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // equalizes timing for unknown emails
			_, _, _ = p.hasher.VerifyTimingSafe(secret, "")
			return nil, fmt.Errorf("verify credential: %w", core.ErrInvalidCredential)
		}
		return nil, fmt.Errorf("verify credential: %w", err)
	}

	valid, rehash, err := p.hasher.VerifyTimingSafe(secret, cred.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify credential: %w", err)
	}
	if !valid {
		return nil, fmt.Errorf("verify credential: %w", core.ErrInvalidCredential)
	}

	if rehash != "" {
		if err := p.creds.UpdateHash(ctx, cred.ID, rehash); err != nil {
			p.logger.WarnContext(ctx, "credential rehash failed",
				"identity_id", cred.ID,
				"error", err,
			)
		}
	}

	return cred.Handle(), nil
}

func (p *Provider) CreateCredential(
	ctx context.Context,
	email, secret string,
) (*Handle, error) {
	if err := p.policy.Check(secret); err != nil {
		return nil, fmt.Errorf("create credential: %w", err)
	}

	hash, err := p.hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("create credential: %w", err)
	}

	cred := &Credential{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
	}

	if err := p.creds.Create(ctx, cred); err != nil {
		return nil, err
	}

	return cred.Handle(), nil
}

// LookupHandle finds the identity for email without checking a secret.
func (p *Provider) LookupHandle(ctx context.Context, email string) (*Handle, error) {
	cred, err := p.creds.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return cred.Handle(), nil
}

func (p *Provider) StartSession(
	ctx context.Context,
	h *Handle,
	claims SessionClaims,
	userAgent, ipAddress string,
) (*Tokens, error) {
	tokens, err := p.issue(
		ctx,
		uuid.New().String(),
		h,
		claims,
		uuid.New().String(),
		userAgent,
		ipAddress,
	)
	if err != nil {
		return nil, fmt.Errorf("start session: %w: %w", core.ErrSessionError, err)
	}

	p.publish(ctx, Event{
		Kind:       SignedIn,
		IdentityID: h.ID,
		Email:      h.Email,
		SessionID:  tokens.SessionID,
	})

	return tokens, nil
}

// Refresh rotates a refresh token. Presenting a token that was already
// rotated revokes its whole session.
func (p *Provider) Refresh(
	ctx context.Context,
	refreshToken string,
	source ClaimsSource,
	userAgent, ipAddress string,
) (*Tokens, error) {
	stored, err := p.sessions.FindByHash(ctx, HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("refresh: %w: %w", core.ErrSessionError, err)
	}

	if stored.IsUsed {
		p.revokeFamily(ctx, stored, "refresh token reuse")
		return nil, fmt.Errorf("refresh: token reuse: %w", core.ErrTokenRevoked)
	}
	if stored.IsRevoked() {
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	}
	if stored.IsExpired(time.Now()) {
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	cred, err := p.creds.GetByID(ctx, stored.IdentityID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("refresh: identity gone: %w", core.ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	h := cred.Handle()

	claims, err := source.SessionClaims(ctx, h)
	if err != nil {
		if ineligible(err) {
			p.revokeFamily(ctx, stored, "session no longer eligible")
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	nextID := uuid.New().String()
	if err := p.sessions.MarkAsUsed(ctx, stored.ID, nextID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			p.revokeFamily(ctx, stored, "concurrent refresh")
			return nil, fmt.Errorf("refresh: token reuse: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w: %w", core.ErrSessionError, err)
	}

	tokens, err := p.issue(ctx, nextID, h, claims, stored.FamilyID, userAgent, ipAddress)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w: %w", core.ErrSessionError, err)
	}

	return tokens, nil
}

// EndSession revokes the session behind the given access token and
// blacklists the token itself.
func (p *Provider) EndSession(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) error {
	if claims == nil {
		return fmt.Errorf("end session: %w", core.ErrUnauthorized)
	}

	if _, err := p.sessions.RevokeFamily(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("end session: %w: %w", core.ErrSessionError, err)
	}

	if err := p.revoker.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("end session: %w: %w", core.ErrSessionError, err)
	}

	p.publish(ctx, Event{
		Kind:       SignedOut,
		IdentityID: claims.UserID,
		SessionID:  claims.SessionID,
	})

	return nil
}

// EndAllSessions signs the identity out everywhere. The caller's own
// access token is blacklisted when claims are given.
func (p *Provider) EndAllSessions(
	ctx context.Context,
	identityID string,
	claims *middleware.AccessTokenClaims,
) error {
	if _, err := p.sessions.RevokeAllForIdentity(ctx, identityID); err != nil {
		return fmt.Errorf("end all sessions: %w: %w", core.ErrSessionError, err)
	}

	if claims != nil {
		if err := p.revoker.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
			return fmt.Errorf("end all sessions: %w: %w", core.ErrSessionError, err)
		}
	}

	p.publish(ctx, Event{Kind: SignedOut, IdentityID: identityID})
	return nil
}

func (p *Provider) ListSessions(
	ctx context.Context,
	identityID string,
) ([]Session, error) {
	sessions, err := p.sessions.ListActive(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w: %w", core.ErrSessionError, err)
	}
	return sessions, nil
}

// RevokeSession ends one of the identity's sessions by session id.
func (p *Provider) RevokeSession(
	ctx context.Context,
	identityID, sessionID string,
) error {
	active, err := p.ListSessions(ctx, identityID)
	if err != nil {
		return err
	}

	owned := false
	for _, s := range active {
		if s.FamilyID == sessionID {
			owned = true
			break
		}
	}
	if !owned {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}

	if _, err := p.sessions.RevokeFamily(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w: %w", core.ErrSessionError, err)
	}

	p.publish(ctx, Event{
		Kind:       SignedOut,
		IdentityID: identityID,
		SessionID:  sessionID,
	})
	return nil
}

func (p *Provider) PruneSessions(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := p.sessions.DeleteExpired(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return n, nil
}

func (p *Provider) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := p.tokens.parseAccessToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := p.revoker.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

func (p *Provider) Subscribe(identityID string, fn func(Event)) func() {
	return p.notifier.Subscribe(identityID, fn)
}

func (p *Provider) JWKSHandler() http.HandlerFunc {
	return p.tokens.JWKSHandler()
}

func (p *Provider) issue(
	ctx context.Context,
	id string,
	h *Handle,
	claims SessionClaims,
	familyID, userAgent, ipAddress string,
) (*Tokens, error) {
	access, err := p.tokens.createAccessToken(h, claims, familyID)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refresh, err := generateOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	s := &Session{
		ID:         id,
		IdentityID: h.ID,
		TokenHash:  HashToken(refresh),
		FamilyID:   familyID,
		ExpiresAt:  time.Now().Add(p.refreshTTL),
		UserAgent:  userAgent,
		IPAddress:  ipAddress,
	}
	if err := p.sessions.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &Tokens{
		AccessToken:  access.Token,
		RefreshToken: refresh,
		SessionID:    familyID,
		ExpiresAt:    access.ExpiresAt,
		ExpiresIn:    time.Until(access.ExpiresAt).Round(time.Second),
	}, nil
}

func ineligible(err error) bool {
	return errors.Is(err, core.ErrAccountRejected) ||
		errors.Is(err, core.ErrPendingApproval) ||
		errors.Is(err, core.ErrAccountNotFound)
}

func (p *Provider) revokeFamily(ctx context.Context, s *Session, reason string) {
	if _, err := p.sessions.RevokeFamily(ctx, s.FamilyID); err != nil {
		p.logger.ErrorContext(ctx, "revoke session family failed",
			"identity_id", s.IdentityID,
			"session_id", s.FamilyID,
			"reason", reason,
			"error", err,
		)
		return
	}

	p.logger.WarnContext(ctx, "session revoked",
		"identity_id", s.IdentityID,
		"session_id", s.FamilyID,
		"reason", reason,
	)

	p.publish(ctx, Event{
		Kind:       SignedOut,
		IdentityID: s.IdentityID,
		SessionID:  s.FamilyID,
	})
}

// publish is best effort: a lost event delays observers, it never fails
// the session operation that caused it.
func (p *Provider) publish(ctx context.Context, ev Event) {
	ev.At = time.Now().UTC()
	if err := p.notifier.Publish(ctx, ev); err != nil {
		p.logger.WarnContext(ctx, "identity event not published",
			"kind", ev.Kind,
			"identity_id", ev.IdentityID,
			"error", err,
		)
	}
}
