// AngelaMos | 2026
// context.go

package account

import "context"

type contextKey struct{}

func WithAccount(ctx context.Context, a *Account) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the signed-in account, or nil when the request was
// not authenticated.
func FromContext(ctx context.Context) *Account {
	if a, ok := ctx.Value(contextKey{}).(*Account); ok {
		return a
	}
	return nil
}
