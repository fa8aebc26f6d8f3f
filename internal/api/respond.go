package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	apperrors "nextstop/internal/errors"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decode reads a JSON request body into v. An empty body leaves v as is.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return apperrors.ErrBadRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

type responder struct {
	logger *slog.Logger
}

func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.Write(w, r, rs.logger, err)
}
