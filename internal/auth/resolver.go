// AngelaMos | 2026
// resolver.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/config"
	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/identity"
)

// Resolver maps an authenticated identity to its account, creating the
// reserved administrator account on its first sign-in.
type Resolver struct {
	accounts   account.Repository
	adminEmail string
	adminName  string
	now        func() time.Time
	logger     *slog.Logger
}

func NewResolver(
	accounts account.Repository,
	bootstrap config.BootstrapConfig,
	logger *slog.Logger,
) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		accounts:   accounts,
		adminEmail: strings.ToLower(strings.TrimSpace(bootstrap.AdminEmail)),
		adminName:  bootstrap.AdminName,
		now:        time.Now,
		logger:     logger,
	}
}

func (r *Resolver) IsReservedAdmin(email string) bool {
	return r.adminEmail != "" &&
		strings.EqualFold(strings.TrimSpace(email), r.adminEmail)
}

// Current resolves h, bootstrapping when h is the reserved admin.
func (r *Resolver) Current(ctx context.Context, h *identity.Handle) (*account.Account, error) {
	if h == nil {
		return nil, fmt.Errorf("resolve account: %w", core.ErrUnauthorized)
	}
	return r.ResolveOrBootstrap(ctx, h, r.IsReservedAdmin(h.Email))
}

// ResolveOrBootstrap returns the stored account for h. A missing account
// is an error unless reserved is set, in which case an active admin
// account is created once. When a concurrent sign-in created it first,
// the stored record wins.
func (r *Resolver) ResolveOrBootstrap(
	ctx context.Context,
	h *identity.Handle,
	reserved bool,
) (*account.Account, error) {
	ctx, span := core.StartSpan(ctx, "auth.resolve_account",
		attribute.String("identity.id", h.ID),
		attribute.Bool("identity.reserved", reserved),
	)
	defer span.End()

	a, err := r.accounts.Get(ctx, h.ID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, core.ErrAccountNotFound) || !reserved {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("resolve account: %w", err)
	}

	admin := account.NewBootstrapAdmin(h.ID, h.Email, r.adminName, r.now())

	created, err := r.accounts.CreateIfAbsent(ctx, admin)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	if created {
		core.AddSpanEvent(ctx, "admin.bootstrapped")
		r.logger.InfoContext(ctx, "bootstrap admin account created",
			"identity_id", h.ID,
			"email", admin.Email,
		)
		return admin, nil
	}

	stored, err := r.accounts.Get(ctx, h.ID)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("bootstrap admin: reread: %w", err)
	}
	return stored, nil
}
