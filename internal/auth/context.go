package auth

import "context"

type ctxKey string

const userContextKey ctxKey = "rcsquiz.auth.user"

func withUserContext(ctx context.Context, u AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the authenticated identity placed on the request
// context by RequireUser or RequireAdmin.
func UserFromContext(ctx context.Context) (AuthUser, bool) {
	v := ctx.Value(userContextKey)
	u, ok := v.(AuthUser)
	return u, ok
}
