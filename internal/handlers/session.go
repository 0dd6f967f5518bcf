package handlers

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	sessionCookieName   = "session_id"
	sessionCookieMaxAge = 30 * 24 * 60 * 60 // 30 days, in seconds
)

// resolveSession returns the session id carried by the request's cookie, or
// issues a fresh one. A cookie whose value parses as a UUID is returned
// unchanged with no Set-Cookie; anything malformed or missing is treated the
// same way, producing a new id attached to the response as a persistent,
// script-inaccessible, same-site cookie. This operation cannot fail.
func resolveSession(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
