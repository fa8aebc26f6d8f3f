package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nextstop/internal/auth"
	"nextstop/internal/session"
)

type RouterConfig struct {
	Logger         *slog.Logger
	Sessions       *session.Manager
	Policy         *auth.Policy
	Booking        *BookingHandler
	Session        *SessionHandler
	Admin          *AdminHandler
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(cfg.Sessions.Middleware)

	r.HandleFunc("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/api/session", cfg.Session.Get).Methods("GET")
	r.HandleFunc("/api/session", cfg.Session.Create).Methods("POST")
	r.HandleFunc("/api/session", cfg.Session.Delete).Methods("DELETE")

	// Booking flow; anyone may search, booking and paying need a session
	signedIn := auth.RequireSession(cfg.Logger)
	booking := r.PathPrefix("/api/booking").Subrouter()
	booking.HandleFunc("", cfg.Booking.Current).Methods("GET")
	booking.HandleFunc("/search", cfg.Booking.Search).Methods("POST")
	booking.HandleFunc("/select", cfg.Booking.SelectSchedule).Methods("POST")
	booking.Handle("/reserve", signedIn(http.HandlerFunc(cfg.Booking.Reserve))).Methods("POST")
	booking.Handle("/pay", signedIn(http.HandlerFunc(cfg.Booking.Pay))).Methods("POST")
	booking.Handle("/pay/confirm", signedIn(http.HandlerFunc(cfg.Booking.ConfirmPayment))).Methods("POST")
	booking.HandleFunc("/back", cfg.Booking.Back).Methods("POST")
	booking.HandleFunc("/reset", cfg.Booking.Reset).Methods("POST")

	receipts := r.PathPrefix("/api/receipts").Subrouter()
	receipts.Use(auth.Authorize(cfg.Policy, auth.ScopeUser, cfg.Logger))
	receipts.HandleFunc("", cfg.Booking.ListReceipts).Methods("GET")
	receipts.HandleFunc("/{bookingId:[0-9]+}", cfg.Booking.GetReceipt).Methods("GET")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.Authorize(cfg.Policy, auth.ScopeAdmin, cfg.Logger))
	admin.HandleFunc("/profile", cfg.Admin.Profile).Methods("GET")
	admin.HandleFunc("/users", cfg.Admin.AddUser).Methods("POST")

	var h http.Handler = r
	h = CORS(cfg.AllowedOrigins)(h)
	h = Recover(cfg.Logger)(h)
	h = AccessLog(cfg.Logger)(h)
	return RequestID(h)
}
