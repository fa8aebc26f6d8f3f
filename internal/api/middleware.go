package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"

	"nextstop/internal/logging"
	"nextstop/internal/metrics"
)

// RequestID tags each request with the caller's X-Request-ID or a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(logging.RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(logging.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// AccessLog logs one line per request once the response is written.
func AccessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return handlers.CustomLoggingHandler(io.Discard, next, func(_ io.Writer, p handlers.LogFormatterParams) {
			metrics.ObserveHTTP(p.Request.Method, p.StatusCode)
			level := slog.LevelInfo
			if p.StatusCode >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(p.Request.Context(), level, "http request",
				"request_id", logging.RequestID(p.Request.Context()),
				"method", p.Request.Method,
				"path", p.URL.Path,
				"status", p.StatusCode,
				"bytes", p.Size,
				"latency_ms", time.Since(p.TimeStamp).Milliseconds(),
			)
		})
	}
}

// Recover turns a handler panic into a 500 and logs it.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
		handlers.PrintRecoveryStack(true),
	)
}

// CORS lets the browser app on the given origins call the API with
// cookies.
func CORS(origins []string) func(http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Accept", logging.RequestIDHeader}),
		handlers.ExposedHeaders([]string{logging.RequestIDHeader}),
		handlers.AllowCredentials(),
	)
}
