// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/gate"
	"github.com/smartpro-edu/smartpro/internal/identity"
	"github.com/smartpro-edu/smartpro/internal/middleware"
	"github.com/smartpro-edu/smartpro/internal/session"
)

type IdentityProvider interface {
	VerifyCredential(ctx context.Context, email, secret string) (*identity.Handle, error)
	CreateCredential(ctx context.Context, email, secret string) (*identity.Handle, error)
	StartSession(
		ctx context.Context,
		h *identity.Handle,
		claims identity.SessionClaims,
		userAgent, ipAddress string,
	) (*identity.Tokens, error)
	Refresh(
		ctx context.Context,
		refreshToken string,
		source identity.ClaimsSource,
		userAgent, ipAddress string,
	) (*identity.Tokens, error)
	EndSession(ctx context.Context, claims *middleware.AccessTokenClaims) error
	EndAllSessions(
		ctx context.Context,
		identityID string,
		claims *middleware.AccessTokenClaims,
	) error
	ListSessions(ctx context.Context, identityID string) ([]identity.Session, error)
	RevokeSession(ctx context.Context, identityID, sessionID string) error
	Subscribe(identityID string, fn func(identity.Event)) func()
}

// NewProfile is what a user supplies at registration.
type NewProfile struct {
	DisplayName string
	School      string
	Class       string
	Expertise   string
}

type LoginResult struct {
	Account  *account.Account
	Tokens   *identity.Tokens
	Redirect gate.Area
}

type Service struct {
	provider IdentityProvider
	resolver *Resolver
	accounts account.Repository
	now      func() time.Time
	logger   *slog.Logger
}

func NewService(
	provider IdentityProvider,
	resolver *Resolver,
	accounts account.Repository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		provider: provider,
		resolver: resolver,
		accounts: accounts,
		now:      time.Now,
		logger:   logger,
	}
}

// Register creates the credential and then the account. The two writes
// are not atomic: when the account write fails the credential stays
// behind and is reported in the log. The reserved admin email is never
// registered; its credential is provisioned out of band.
func (s *Service) Register(
	ctx context.Context,
	email, secret string,
	profile NewProfile,
	requestedRole string,
) (*account.Account, error) {
	role, err := account.ParseRegistrationRole(requestedRole)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	if s.resolver.IsReservedAdmin(email) {
		s.logger.WarnContext(ctx, "registration attempted with reserved admin email")
		return nil, fmt.Errorf("register: reserved email: %w", core.ErrDuplicateIdentity)
	}

	h, err := s.provider.CreateCredential(ctx, email, secret)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	a := &account.Account{
		ID:          h.ID,
		Email:       h.Email,
		DisplayName: strings.TrimSpace(profile.DisplayName),
		Role:        role,
		Status:      account.InitialStatus(role),
		CreatedAt:   s.now().UTC(),
	}

	switch role {
	case account.RoleStudent:
		var balance int64
		a.Balance = &balance
		a.Profile.School = profile.School
		a.Profile.Class = profile.Class
	case account.RoleTeacher:
		a.Profile.Expertise = profile.Expertise
	}

	if err := s.accounts.Create(ctx, a); err != nil {
		core.AddSpanEvent(ctx, "credential.orphaned",
			attribute.String("identity.id", h.ID),
		)
		s.logger.ErrorContext(ctx, "account write failed after credential creation",
			"identity_id", h.ID,
			"email", h.Email,
			"role", role,
			"error", err,
		)
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.InfoContext(ctx, "account registered",
		"identity_id", a.ID,
		"role", a.Role,
		"status", a.Status,
	)

	return a, nil
}

// Login verifies the credential, resolves the account and starts a
// session only for accounts allowed to sign in.
func (s *Service) Login(
	ctx context.Context,
	email, secret, userAgent, ipAddress string,
) (*LoginResult, error) {
	h, err := s.provider.VerifyCredential(ctx, email, secret)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	a, err := s.resolver.ResolveOrBootstrap(ctx, h, s.resolver.IsReservedAdmin(h.Email))
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := gate.CheckLoginEligibility(a); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	tokens, err := s.provider.StartSession(ctx, h, claimsFor(a), userAgent, ipAddress)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return &LoginResult{
		Account:  a,
		Tokens:   tokens,
		Redirect: gate.Route(a.Role),
	}, nil
}

// SessionClaims re-reads the account on refresh. A teacher rejected
// after signing in stops refreshing.
func (s *Service) SessionClaims(
	ctx context.Context,
	h *identity.Handle,
) (identity.SessionClaims, error) {
	a, err := s.resolver.Current(ctx, h)
	if err != nil {
		return identity.SessionClaims{}, err
	}
	if err := gate.CheckLoginEligibility(a); err != nil {
		return identity.SessionClaims{}, err
	}
	return claimsFor(a), nil
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*identity.Tokens, error) {
	return s.provider.Refresh(ctx, refreshToken, s, userAgent, ipAddress)
}

func (s *Service) Logout(ctx context.Context, claims *middleware.AccessTokenClaims) error {
	return s.provider.EndSession(ctx, claims)
}

func (s *Service) LogoutAll(ctx context.Context, claims *middleware.AccessTokenClaims) error {
	if claims == nil {
		return fmt.Errorf("logout all: %w", core.ErrUnauthorized)
	}
	return s.provider.EndAllSessions(ctx, claims.UserID, claims)
}

func (s *Service) Sessions(ctx context.Context, identityID string) ([]identity.Session, error) {
	return s.provider.ListSessions(ctx, identityID)
}

func (s *Service) RevokeSession(ctx context.Context, identityID, sessionID string) error {
	return s.provider.RevokeSession(ctx, identityID, sessionID)
}

// Track returns an uninitialised tracker for one session of identityID.
func (s *Service) Track(identityID, sessionID string) *session.Tracker {
	return session.NewTracker(s.provider, s.resolver, identityID, sessionID, s.logger)
}

func claimsFor(a *account.Account) identity.SessionClaims {
	return identity.SessionClaims{
		Role:   string(a.Role),
		Status: string(a.Status),
	}
}
