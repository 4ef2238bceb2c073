package router // package router defines how HTTP routes are registered for the UI server

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/cinema-assistant/internal/handler" // import the handlers that render pages and answer the page's calls
)

// RegisterRoutes registers the liveness endpoint.  It runs outside the
// session middleware so probes do not create visitor sessions.
func RegisterRoutes(e *echo.Echo, h *handler.UIHandler) {
	e.GET("/healthz", h.Health)
}

// UIMiddleware are the middlewares RegisterUI places on visitor routes.
type UIMiddleware struct {
	Sessions   echo.MiddlewareFunc // resolves the visitor's UI session; runs first
	ChatLimit  echo.MiddlewareFunc // token bucket on the chat send
	MovieCache echo.MiddlewareFunc // response cache on the movie list passthrough
}

// RegisterUI registers every visitor-facing route.
func RegisterUI(e *echo.Echo, h *handler.UIHandler, mw UIMiddleware) {
	g := e.Group("", mw.Sessions)

	// conversation
	g.GET("/", h.Index)
	g.POST("/chat", h.Chat, mw.ChatLimit)
	g.GET("/state", h.State)
	g.GET("/api/movies", h.Movies, mw.MovieCache)

	// results and the booking mock
	g.GET("/movie/:key", h.Detail)
	g.GET("/booking", h.CurrentBooking)
	g.GET("/booking/:key", h.StartBooking)
	g.POST("/booking/seats/:seat", h.ToggleSeat)
	g.POST("/booking/proceed", h.Proceed)
	g.POST("/booking/pay", h.Pay)

	// voice bridge; the page owns the recognizer and relays through these
	v := g.Group("/voice")
	v.POST("/mount", h.MountVoice)
	v.POST("/toggle", h.ToggleVoice)
	v.POST("/cancel", h.CancelVoice)
	v.POST("/events", h.VoiceEvents)
	v.GET("/command", h.VoiceCommand)
}
