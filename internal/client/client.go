// Package client wraps the NextStop backend REST endpoints.
//
// Every method issues exactly one request: no retries, no caching. Failures
// come back as *Error whatever their cause.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"nextstop/internal/metrics"
	"nextstop/internal/session"
)

const maxResponseBytes = 4 << 20

// maxMessageRunes caps a plain-text error body shown to users.
const maxMessageRunes = 200

// Endpoints holds the base URL of each backend service.
type Endpoints struct {
	User         string
	Bus          string
	Booking      string
	Payment      string
	Notification string
}

type Config struct {
	Endpoints  Endpoints
	HTTPClient *http.Client
	Logger     *slog.Logger
	// ScheduleDateOffsetDays is added to the caller's travel date before
	// FetchSchedules queries the bus service.
	ScheduleDateOffsetDays int
}

type Client struct {
	endpoints  Endpoints
	httpClient *http.Client
	logger     *slog.Logger
	dateOffset int
	session    session.Session
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	trim := func(s string) string { return strings.TrimRight(s, "/") }
	return &Client{
		endpoints: Endpoints{
			User:         trim(cfg.Endpoints.User),
			Bus:          trim(cfg.Endpoints.Bus),
			Booking:      trim(cfg.Endpoints.Booking),
			Payment:      trim(cfg.Endpoints.Payment),
			Notification: trim(cfg.Endpoints.Notification),
		},
		httpClient: httpClient,
		logger:     logger,
		dateOffset: cfg.ScheduleDateOffsetDays,
	}
}

// WithSession returns a client whose authenticated calls carry s's token.
func (c *Client) WithSession(s session.Session) *Client {
	clone := *c
	clone.session = s
	return &clone
}

type call struct {
	op     string
	method string
	url    string
	body   any
	header http.Header
	// auth attaches the session's bearer token when one is present.
	auth bool
}

func (c *Client) do(ctx context.Context, rc call, out any) error {
	var reader io.Reader
	if rc.body != nil {
		encoded, err := json.Marshal(rc.body)
		if err != nil {
			return &Error{Op: rc.op, Kind: KindEncode, Err: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, rc.method, rc.url, reader)
	if err != nil {
		return &Error{Op: rc.op, Kind: KindEncode, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range rc.header {
		req.Header[k] = v
	}
	if rc.auth && c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "backend call failed",
			"op", rc.op, "method", rc.method, "url", rc.url, "error", err)
		metrics.ObserveBackend(rc.op, string(KindTransport), time.Since(start))
		return &Error{Op: rc.op, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	latency := time.Since(start)
	outcome := "ok"
	defer func() { metrics.ObserveBackend(rc.op, outcome, latency) }()
	if err != nil {
		outcome = string(KindTransport)
		c.logger.ErrorContext(ctx, "reading backend response",
			"op", rc.op, "status", resp.StatusCode, "error", err)
		return &Error{Op: rc.op, Kind: KindTransport, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = string(KindStatus)
		c.logger.WarnContext(ctx, "backend returned error status",
			"op", rc.op, "method", rc.method, "url", rc.url,
			"status", resp.StatusCode, "latency_ms", latency.Milliseconds())
		return &Error{Op: rc.op, Kind: KindStatus, StatusCode: resp.StatusCode, Message: errorMessage(payload)}
	}

	c.logger.DebugContext(ctx, "backend call",
		"op", rc.op, "method", rc.method, "url", rc.url,
		"status", resp.StatusCode, "latency_ms", latency.Milliseconds())

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		outcome = string(KindDecode)
		return &Error{Op: rc.op, Kind: KindDecode, StatusCode: resp.StatusCode, Err: errors.New("empty response body")}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		outcome = string(KindDecode)
		return &Error{Op: rc.op, Kind: KindDecode, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

// errorMessage extracts a human-readable message from an error body. The
// backends use either {"message": ...} or {"error": ...}; anything else is
// returned as trimmed text.
func errorMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(payload, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	text := strings.TrimSpace(string(payload))
	if r := []rune(text); len(r) > maxMessageRunes {
		text = string(r[:maxMessageRunes])
	}
	return text
}
