// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/gate"
)

const (
	UserIDKey contextKey = "user_id"
	ClaimsKey contextKey = "jwt_claims"
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

// AccessTokenClaims is the verified content of a bearer token. SessionID
// names the login session the token was issued for.
type AccessTokenClaims struct {
	UserID    string
	Email     string
	Role      string
	Status    string
	SessionID string
	TokenID   string
	ExpiresAt time.Time
}

func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type AccountLoader interface {
	GetByID(ctx context.Context, id string) (*account.Account, error)
}

// ResolveAccount loads the account of the authenticated identity and
// stores it in the request context. It must run after Authenticator.
func ResolveAccount(loader AccountLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, err := loader.GetByID(r.Context(), GetUserID(r.Context()))
			if err != nil {
				core.JSONError(w, gate.Describe(err))
				return
			}

			ctx := account.WithAccount(r.Context(), a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole applies gate.Authorize to the resolved account.
func RequireRole(roles ...account.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := gate.Authorize(account.FromContext(r.Context()), roles...)

			switch d.Outcome {
			case gate.Allow:
				next.ServeHTTP(w, r)
			case gate.RedirectToLogin:
				core.JSONError(
					w,
					core.NewAppError(
						core.ErrUnauthorized,
						"sign in to continue",
						http.StatusUnauthorized,
						"LOGIN_REQUIRED",
					),
				)
			default:
				core.JSONError(w, core.ForbiddenError(d.Message))
			}
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(account.RoleAdmin)(next)
}

type SubscriptionChecker interface {
	HasActive(ctx context.Context, userID string) (bool, error)
}

// RequireEntitlement admits students holding a balance or an active
// subscription. The subscription lookup is skipped when the balance
// already qualifies.
func RequireEntitlement(checker SubscriptionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := account.FromContext(r.Context())

			if gate.HasEntitlement(a, false) {
				next.ServeHTTP(w, r)
				return
			}

			active := false
			if a != nil {
				var err error
				active, err = checker.HasActive(r.Context(), a.ID)
				if err != nil {
					core.JSONError(w, gate.Describe(err))
					return
				}
			}

			if !gate.HasEntitlement(a, active) {
				core.JSONError(w, core.DomainError(core.ErrPaymentNeeded))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}
