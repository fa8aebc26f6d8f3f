package auth

import (
	"log/slog"
	"net/http"

	apperrors "nextstop/internal/errors"
	"nextstop/internal/session"
)

// RequireSession rejects requests without a signed-in session. It must
// run after session.Manager.Middleware.
func RequireSession(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !session.FromContext(r.Context()).IsAuthenticated() {
				apperrors.Write(w, r, logger, apperrors.ErrUnauthorized("sign in to continue"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authorize asks the policy whether the session may use scope. Anonymous
// callers get 401, signed-in callers without access get 403.
func Authorize(p *Policy, scope Scope, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.FromContext(r.Context())
			if !sess.IsAuthenticated() {
				apperrors.Write(w, r, logger, apperrors.ErrUnauthorized("sign in to continue"))
				return
			}
			allowed, err := p.Allow(r.Context(), InputFor(sess, scope, r.Method, r.URL.Path))
			if err != nil {
				apperrors.Write(w, r, logger, err)
				return
			}
			if !allowed {
				logger.WarnContext(r.Context(), "access denied",
					"user_id", sess.User.ID, "scope", scope, "path", r.URL.Path)
				apperrors.Write(w, r, logger, apperrors.ErrForbidden("you do not have access to this page"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
