package auth

import (
	"context"
)

type contextKey string

const UserContextKey contextKey = "user"

// GetUser retrieves the authenticated user from the context
func GetUser(ctx context.Context) *User {
	user, _ := ctx.Value(UserContextKey).(*User)
	return user
}

// GetUsernameFromContext returns the authenticated username, or "" when the
// request is anonymous.
func GetUsernameFromContext(ctx context.Context) string {
	if user := GetUser(ctx); user != nil {
		return user.Username
	}
	return ""
}

// WithUser stores user in the context
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}
