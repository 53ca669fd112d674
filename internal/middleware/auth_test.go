// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/core"
)

type verifierFunc func(ctx context.Context, token string) (*AccessTokenClaims, error)

func (f verifierFunc) VerifyAccessToken(ctx context.Context, token string) (*AccessTokenClaims, error) {
	return f(ctx, token)
}

type loaderFunc func(ctx context.Context, id string) (*account.Account, error)

func (f loaderFunc) GetByID(ctx context.Context, id string) (*account.Account, error) {
	return f(ctx, id)
}

type checkerFunc func(ctx context.Context, userID string) (bool, error)

func (f checkerFunc) HasActive(ctx context.Context, userID string) (bool, error) {
	return f(ctx, userID)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func withAccount(r *http.Request, a *account.Account) *http.Request {
	return r.WithContext(account.WithAccount(r.Context(), a))
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, ExtractToken(r))
		})
	}
}

func TestAuthenticator(t *testing.T) {
	verifier := verifierFunc(func(_ context.Context, token string) (*AccessTokenClaims, error) {
		switch token {
		case "good":
			return &AccessTokenClaims{UserID: "u1", SessionID: "s1"}, nil
		case "expired":
			return nil, fmt.Errorf("parse: %w", core.ErrTokenExpired)
		case "revoked":
			return nil, fmt.Errorf("verify: %w", core.ErrTokenRevoked)
		default:
			return nil, errors.New("garbage")
		}
	})

	var seen *AccessTokenClaims
	h := Authenticator(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetClaims(r.Context())
		assert.Equal(t, "u1", GetUserID(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		token  string
		status int
		code   string
	}{
		{"", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"expired", http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"revoked", http.StatusUnauthorized, "TOKEN_REVOKED"},
		{"garbage", http.StatusUnauthorized, "TOKEN_INVALID"},
	}
	for _, tt := range tests {
		t.Run("token "+tt.token, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				r.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "s1", seen.SessionID)
}

func TestResolveAccount(t *testing.T) {
	loader := loaderFunc(func(_ context.Context, id string) (*account.Account, error) {
		switch id {
		case "u1":
			return &account.Account{ID: "u1", Role: account.RoleTeacher}, nil
		case "down":
			return nil, fmt.Errorf("get: %w", core.ErrStoreUnavailable)
		default:
			return nil, fmt.Errorf("get: %w", core.ErrAccountNotFound)
		}
	})

	h := ResolveAccount(loader)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := account.FromContext(r.Context())
		require.NotNil(t, a)
		assert.Equal(t, account.RoleTeacher, a.Role)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		userID string
		status int
	}{
		{"u1", http.StatusOK},
		{"ghost", http.StatusUnauthorized},
		{"down", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.userID, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(context.WithValue(r.Context(), UserIDKey, tt.userID))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(account.RoleTeacher)(okHandler)

	tests := []struct {
		name    string
		account *account.Account
		status  int
		code    string
	}{
		{"anonymous", nil, http.StatusUnauthorized, "LOGIN_REQUIRED"},
		{"student", &account.Account{Role: account.RoleStudent}, http.StatusForbidden, "FORBIDDEN"},
		{"admin is not a teacher", &account.Account{Role: account.RoleAdmin}, http.StatusForbidden, "FORBIDDEN"},
		{"teacher", &account.Account{Role: account.RoleTeacher}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.account != nil {
				r = withAccount(r, tt.account)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, rec))
			}
		})
	}
}

func TestRequireEntitlement(t *testing.T) {
	balance := int64(5000)
	zero := int64(0)
	lookups := 0

	checker := checkerFunc(func(_ context.Context, userID string) (bool, error) {
		lookups++
		switch userID {
		case "subscribed":
			return true, nil
		case "broken":
			return false, fmt.Errorf("subs: %w", core.ErrStoreUnavailable)
		default:
			return false, nil
		}
	})
	h := RequireEntitlement(checker)(okHandler)

	tests := []struct {
		name    string
		account *account.Account
		status  int
	}{
		{"balance", &account.Account{ID: "rich", Role: account.RoleStudent, Balance: &balance}, http.StatusOK},
		{"subscription", &account.Account{ID: "subscribed", Role: account.RoleStudent, Balance: &zero}, http.StatusOK},
		{"neither", &account.Account{ID: "poor", Role: account.RoleStudent}, http.StatusPaymentRequired},
		{"lookup failure", &account.Account{ID: "broken", Role: account.RoleStudent}, http.StatusServiceUnavailable},
		{"teacher", &account.Account{ID: "subscribed", Role: account.RoleTeacher}, http.StatusPaymentRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, withAccount(httptest.NewRequest(http.MethodGet, "/", nil), tt.account))
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	assert.Equal(t, 4, lookups)
}
