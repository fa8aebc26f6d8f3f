package api

import (
	"log/slog"
	"net/http"

	"nextstop/internal/service"
	"nextstop/internal/session"
)

// SessionHandler stores the token the user service issued at sign-in,
// together with the user that service reports for it, so later requests
// can act on the user's behalf.
type SessionHandler struct {
	Manager *session.Manager
	Service *service.SessionService
	responder
}

func NewSessionHandler(m *session.Manager, svc *service.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{Manager: m, Service: svc, responder: responder{logger: logger}}
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	resp := SessionResponse{Authenticated: sess.IsAuthenticated()}
	if resp.Authenticated {
		resp.User = &sess.User
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sess, err := h.Service.SignIn(r.Context(), req.Token)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Manager.Write(w, sess); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Authenticated: true, User: &sess.User})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.Manager.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
