package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-assistant/internal/middleware"
	"github.com/iliyamo/cinema-assistant/internal/session"
	"github.com/iliyamo/cinema-assistant/internal/speech"
)

type mountRequest struct {
	Supported bool `json:"supported"`
}

// MountVoice records whether the page can recognize speech.  Only the first
// report of a session counts.
func (h *UIHandler) MountVoice(c echo.Context) error {
	var req mountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	s := middleware.CurrentSession(c)
	s.MountVoice(req.Supported)
	return c.JSON(http.StatusOK, h.voiceState(s))
}

// ToggleVoice is the microphone button.  It is refused while a reply is
// pending, like the send button.
func (h *UIHandler) ToggleVoice(c echo.Context) error {
	s := middleware.CurrentSession(c)
	capture, _ := s.Voice()
	if capture == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "voice input is not mounted"})
	}
	if s.Conversation.Pending() {
		return c.JSON(http.StatusConflict, echo.Map{"error": "a reply is still pending"})
	}
	if err := capture.Toggle(); err != nil {
		return voiceError(c, err)
	}
	return c.JSON(http.StatusOK, h.voiceState(s))
}

// CancelVoice is the overlay's cancel button.
func (h *UIHandler) CancelVoice(c echo.Context) error {
	s := middleware.CurrentSession(c)
	capture, _ := s.Voice()
	if capture == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "voice input is not mounted"})
	}
	if err := capture.Cancel(); err != nil {
		return voiceError(c, err)
	}
	return c.JSON(http.StatusOK, h.voiceState(s))
}

// VoiceEvents receives one recognition event from the page.  Events of a
// session that is no longer open are accepted and ignored.
func (h *UIHandler) VoiceEvents(c echo.Context) error {
	var ev speech.Event
	if err := c.Bind(&ev); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	s := middleware.CurrentSession(c)
	_, bridge := s.Voice()
	if bridge == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "voice input is not mounted"})
	}
	if _, err := bridge.Deliver(ev); err != nil {
		if errors.Is(err, speech.ErrUnknownEvent) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown event type"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to deliver event"})
	}
	return c.JSON(http.StatusOK, h.voiceState(s))
}

// VoiceCommand drains the commands queued for the page's recognizer.
func (h *UIHandler) VoiceCommand(c echo.Context) error {
	return c.JSON(http.StatusOK, h.voiceState(middleware.CurrentSession(c)))
}

func (h *UIHandler) voiceState(s *session.Session) stateResponse {
	var cmds []speech.Command
	if _, bridge := s.Voice(); bridge != nil {
		cmds = bridge.Commands()
	}
	return h.state(s, cmds)
}

func voiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, speech.ErrUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "voice input is not supported"})
	case errors.Is(err, speech.ErrClosed):
		return c.JSON(http.StatusGone, echo.Map{"error": "voice input is closed"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "voice input failed"})
}
