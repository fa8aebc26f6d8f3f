package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"nextstop/internal/client"
	"nextstop/internal/entities"
	"nextstop/internal/session"
)

// UserLookup identifies the owner of the bearer token it was built with.
type UserLookup interface {
	FetchCurrentUser(ctx context.Context) (entities.AdminProfile, error)
}

// UserLookupFunc yields a lookup authenticated with token.
type UserLookupFunc func(token string) UserLookup

// ClientUserLookup asks the user service through the REST client.
func ClientUserLookup(c *client.Client) UserLookupFunc {
	return func(token string) UserLookup { return c.WithSession(session.Session{Token: token}) }
}

// SessionService turns a token issued at sign-in into a session. The user
// in the session is always the one the user service reports for the token.
type SessionService struct {
	lookup UserLookupFunc
	logger *slog.Logger
}

func NewSessionService(lookup UserLookupFunc, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{lookup: lookup, logger: logger}
}

// SignIn resolves token with the user service. A token the user service
// refuses yields ErrTokenRejected.
func (s *SessionService) SignIn(ctx context.Context, token string) (session.Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return session.Session{}, ValidationError{Field: "token", Msg: "is required"}
	}
	p, err := s.lookup(token).FetchCurrentUser(ctx)
	if err != nil {
		if client.IsUnauthorized(err) {
			s.logger.WarnContext(ctx, "session token rejected by user service", "error", err)
			return session.Session{}, ErrTokenRejected
		}
		return session.Session{}, fmt.Errorf("resolving session user: %w", err)
	}
	if p.ID == 0 {
		s.logger.WarnContext(ctx, "user service returned no user id for token")
		return session.Session{}, ErrTokenRejected
	}
	s.logger.InfoContext(ctx, "session created", "user_id", p.ID, "roles", p.Roles)
	return session.Session{
		Token: token,
		User: session.User{
			ID:       p.ID,
			FullName: p.FullName,
			Email:    p.Email,
			Roles:    slices.Clone(p.Roles),
		},
	}, nil
}
