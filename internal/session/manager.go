package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "nextstop_session"

var ErrInvalid = errors.New("session: invalid or expired")

type claims struct {
	Token string `json:"tok"`
	User  User   `json:"usr"`
	jwt.RegisteredClaims
}

// Manager signs sessions into cookies and reads them back.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
	logger *slog.Logger
}

func NewManager(secret string, ttl time.Duration, secure bool, logger *slog.Logger) (*Manager, error) {
	if len(secret) < 16 {
		return nil, errors.New("session: secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("session: ttl must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now, logger: logger}, nil
}

func (m *Manager) Encode(s Session) (string, error) {
	now := m.now()
	c := claims{
		Token: s.Token,
		User:  s.User,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Subject:   fmt.Sprint(s.User.ID),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("session: signing: %w", err)
	}
	return signed, nil
}

func (m *Manager) Decode(raw string) (Session, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return Session{Token: c.Token, User: c.User}, nil
}

// Write stores s in the session cookie.
func (m *Manager) Write(w http.ResponseWriter, s Session) error {
	value, err := m.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  m.now().Add(m.ttl),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the session carried by r. A missing or bad cookie yields the
// zero session.
func (m *Manager) Read(r *http.Request) Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Session{}
	}
	s, err := m.Decode(cookie.Value)
	if err != nil {
		m.logger.Debug("discarding session cookie", "error", err)
		return Session{}
	}
	return s
}

// Middleware puts the request's session into its context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), m.Read(r))))
	})
}
