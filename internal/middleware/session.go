package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // cookie construction
	"time"     // cookie lifetime

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/cinema-assistant/internal/session"
)

// CookieName is the cookie carrying the signed UI session id.
const CookieName = "assistant_session"

// Sessions returns an Echo middleware that resolves the visitor's UI session
// from the signed cookie and stores it in the context under "session".  A
// missing, expired or tampered cookie starts a new session; every response
// re-issues the cookie so an active visitor never expires.
func Sessions(reg *session.Registry, secret string, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := ""
			if ck, err := c.Cookie(CookieName); err == nil {
				if sid, err := session.ParseToken(secret, ck.Value); err == nil {
					id = sid
				}
			}
			if id == "" {
				id = session.NewID()
			}
			tok, err := session.NewToken(secret, id, ttl)
			if err != nil {
				return c.String(http.StatusInternalServerError, "cannot issue session")
			}
			c.SetCookie(&http.Cookie{
				Name:     CookieName,
				Value:    tok.Value,
				Path:     "/",
				Expires:  tok.Exp,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			c.Set("session_id", id)
			c.Set("session", reg.Get(id))
			return next(c)
		}
	}
}
