package api

import (
	"net/http"
	"time"
)

const FlowCookieName = "nextstop_flow"

// FlowCookies remembers which booking flow a browser is on.
type FlowCookies struct {
	TTL    time.Duration
	Secure bool
}

func (c FlowCookies) Read(r *http.Request) string {
	cookie, err := r.Cookie(FlowCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (c FlowCookies) Write(w http.ResponseWriter, flowID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     FlowCookieName,
		Value:    flowID,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
