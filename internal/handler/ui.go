// Package handler exposes the HTTP handlers of the assistant UI.  Pages are
// rendered through the Echo renderer; the voice bridge and the state poll
// speak JSON.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-assistant/internal/conversation"
	"github.com/iliyamo/cinema-assistant/internal/health"
	"github.com/iliyamo/cinema-assistant/internal/middleware"
	"github.com/iliyamo/cinema-assistant/internal/model"
	"github.com/iliyamo/cinema-assistant/internal/results"
	"github.com/iliyamo/cinema-assistant/internal/session"
	"github.com/iliyamo/cinema-assistant/internal/speech"
)

// MovieLister is the part of the API client the movie passthrough needs.
type MovieLister interface {
	ListMovies(ctx context.Context) ([]model.Movie, error)
}

// UIHandler serves every page of the assistant.
type UIHandler struct {
	API        MovieLister   // chat API client
	Store      results.Store // shows addressable by key
	Probe      *health.Probe // startup health check
	APIBaseURL string        // shown in the degraded banner
	SeatPrice  int           // fallback per-seat price
}

// NewUIHandler constructs a UIHandler and panics if a dependency is nil.
func NewUIHandler(api MovieLister, store results.Store, probe *health.Probe, apiBaseURL string, seatPrice int) *UIHandler {
	if api == nil || store == nil || probe == nil {
		panic("nil dependency passed to NewUIHandler")
	}
	return &UIHandler{API: api, Store: store, Probe: probe, APIBaseURL: apiBaseURL, SeatPrice: seatPrice}
}

// pageBase carries the degraded-mode banner shared by every page.
type pageBase struct {
	Degraded   bool
	BannerText string
}

func (h *UIHandler) base() pageBase {
	return pageBase{Degraded: h.Probe.Degraded(), BannerText: health.Banner(h.APIBaseURL)}
}

type voiceView struct {
	Available bool
	Snapshot  speech.Snapshot
}

type indexPage struct {
	pageBase
	Flash    string
	Messages []model.Message
	Pending  bool
	Results  results.View
	Voice    voiceView
}

// stateResponse is the JSON snapshot polled by the page.
type stateResponse struct {
	Messages     []model.Message  `json:"messages"`
	MessageCount int              `json:"message_count"`
	Pending      bool             `json:"pending"`
	Degraded     bool             `json:"degraded"`
	Results      []results.Card   `json:"results"`
	Voice        *speech.Snapshot `json:"voice,omitempty"`
	Commands     []speech.Command `json:"commands,omitempty"`
}

type chatForm struct {
	Message string `json:"message" form:"message"`
}

// Index renders the conversation and the results panel.  Arriving here
// abandons any booking in progress.
func (h *UIHandler) Index(c echo.Context) error {
	s := middleware.CurrentSession(c)
	s.DiscardBooking()
	page := indexPage{
		pageBase: h.base(),
		Flash:    s.TakeFlash(),
		Messages: s.Conversation.Messages(),
		Pending:  s.Conversation.Pending(),
		Results:  s.ResultsView(),
		Voice:    voiceView{Available: true},
	}
	if capture, _ := s.Voice(); capture != nil {
		page.Voice = voiceView{Available: capture.Available(), Snapshot: capture.Snapshot()}
	}
	return c.Render(http.StatusOK, "index", page)
}

// Chat starts sending a typed message and answers at once: the user's
// message and the pending indicator are in the returned state and the page
// polls until the reply lands.  A plain form post is redirected back to the
// page, which shows the same pending state.
func (h *UIHandler) Chat(c echo.Context) error {
	s := middleware.CurrentSession(c)
	var req chatForm
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	// the session context outlives the request
	_, err := s.Conversation.Start(s.Context(), req.Message)
	if err != nil && !wantsJSON(c) {
		if errors.Is(err, conversation.ErrPending) {
			s.SetFlash("Please wait for the current reply")
		}
		return c.Redirect(http.StatusSeeOther, "/")
	}
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message must not be empty"})
	case errors.Is(err, conversation.ErrPending):
		return c.JSON(http.StatusConflict, echo.Map{"error": "a reply is still pending"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send message"})
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusAccepted, h.state(s, nil))
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// State returns the conversation snapshot as JSON.
func (h *UIHandler) State(c echo.Context) error {
	return c.JSON(http.StatusOK, h.state(middleware.CurrentSession(c), nil))
}

func (h *UIHandler) state(s *session.Session, cmds []speech.Command) stateResponse {
	msgs := s.Conversation.Messages()
	out := stateResponse{
		Messages:     msgs,
		MessageCount: len(msgs),
		Pending:      s.Conversation.Pending(),
		Degraded:     h.Probe.Degraded(),
		Results:      s.ResultsView().Cards,
		Commands:     cmds,
	}
	if out.Messages == nil {
		out.Messages = []model.Message{}
	}
	if out.Results == nil {
		out.Results = []results.Card{}
	}
	if capture, _ := s.Voice(); capture != nil {
		snap := capture.Snapshot()
		out.Voice = &snap
	}
	return out
}

func wantsJSON(c echo.Context) bool {
	req := c.Request()
	return strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) ||
		strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}
