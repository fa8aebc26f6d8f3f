package api

import (
	"log/slog"
	"net/http"

	"nextstop/internal/service"
	"nextstop/internal/session"
)

type AdminHandler struct {
	Service *service.AdminService
	responder
}

func NewAdminHandler(svc *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{Service: svc, responder: responder{logger: logger}}
}

func (h *AdminHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Service.Profile(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *AdminHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req AddUserRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	created, err := h.Service.AddUser(r.Context(), session.FromContext(r.Context()), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
