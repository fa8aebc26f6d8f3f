// Package session carries the caller's authentication state explicitly.
//
// The bearer token and user object issued by the user service live in a
// signed cookie. Handlers read them once per request and pass the resulting
// Session value to every call that needs it.
package session

import (
	"context"
	"slices"
)

// User is the signed-in user as reported by the user service.
type User struct {
	ID       int64    `json:"id"`
	FullName string   `json:"fullName"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// IsAuthenticated reports whether a non-empty token is present.
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

func (s Session) HasRole(role string) bool {
	return slices.Contains(s.User.Roles, role)
}

type contextKey struct{}

func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by the middleware, or the zero
// (unauthenticated) session.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(contextKey{}).(Session)
	return s
}
