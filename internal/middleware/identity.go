package middleware

// identity.go defines helpers shared across middleware and handlers for
// pulling the UI session out of the Echo context.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-assistant/internal/session"
)

// CurrentSession returns the session stored by Sessions, or nil.
func CurrentSession(c echo.Context) *session.Session {
	s, _ := c.Get("session").(*session.Session)
	return s
}

// sessionID returns the session id, or "anon" when Sessions did not run.
func sessionID(c echo.Context) string {
	if v, ok := c.Get("session_id").(string); ok && v != "" {
		return v
	}
	return "anon"
}
