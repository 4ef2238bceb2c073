package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-assistant/internal/booking"
	"github.com/iliyamo/cinema-assistant/internal/middleware"
	"github.com/iliyamo/cinema-assistant/internal/session"
)

type bookingPage struct {
	pageBase
	Alert    string
	Show     booking.Show
	Step     string
	Rows     []string
	Grid     [][]booking.Seat
	Selected []string
	Total    int
}

func (h *UIHandler) bookingPage(d *booking.Draft) bookingPage {
	return bookingPage{
		pageBase: h.base(),
		Show:     d.Show,
		Step:     string(d.Step),
		Rows:     booking.Rows,
		Grid:     d.Grid(),
		Selected: d.Selected(),
		Total:    d.Total(),
	}
}

// StartBooking opens the booking mock for a stored show.
func (h *UIHandler) StartBooking(c echo.Context) error {
	s := middleware.CurrentSession(c)
	key := c.Param("key")
	if _, err := s.StartBooking(c.Request().Context(), key, h.SeatPrice); err != nil {
		if errors.Is(err, session.ErrNoShow) {
			return c.Render(http.StatusNotFound, "notfound", nil)
		}
		log.Printf("booking: show store lookup %q failed: %v", key, err)
		return c.Render(http.StatusInternalServerError, "notfound", nil)
	}
	return h.CurrentBooking(c)
}

// CurrentBooking renders the draft in progress.  Without one the page opens
// on the placeholder show.
func (h *UIHandler) CurrentBooking(c echo.Context) error {
	s := middleware.CurrentSession(c)
	var page bookingPage
	if !s.WithBooking(func(d *booking.Draft) { page = h.bookingPage(d) }) {
		page = h.bookingPage(s.OpenBooking(booking.DefaultShow()))
	}
	return c.Render(http.StatusOK, "booking", page)
}

// ToggleSeat selects or releases one seat.
func (h *UIHandler) ToggleSeat(c echo.Context) error {
	seat := c.Param("seat")
	return h.step(c, func(d *booking.Draft) error { return d.Toggle(seat) })
}

// Proceed moves from seat selection to payment.
func (h *UIHandler) Proceed(c echo.Context) error {
	return h.step(c, func(d *booking.Draft) error { return d.Proceed() })
}

// Pay submits the mock payment.  On success the draft is dropped and the
// confirmation is shown on the conversation page.
func (h *UIHandler) Pay(c echo.Context) error {
	var card booking.CardFields
	if err := c.Bind(&card); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	s := middleware.CurrentSession(c)
	var conf booking.Confirmation
	var failure *bookingPage
	ok := s.WithBooking(func(d *booking.Draft) {
		var err error
		if conf, err = d.Pay(card); err != nil {
			page := h.bookingPage(d)
			page.Alert = booking.UserMessage(err)
			failure = &page
		}
	})
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if failure != nil {
		return c.Render(http.StatusUnprocessableEntity, "booking", *failure)
	}
	s.DiscardBooking()
	s.SetFlash(conf.Message)
	return c.Redirect(http.StatusSeeOther, "/")
}

// step applies fn to the draft.  A rejected action re-renders the page with
// the alert; an accepted one redirects back to the booking page.
func (h *UIHandler) step(c echo.Context, fn func(d *booking.Draft) error) error {
	s := middleware.CurrentSession(c)
	var failure *bookingPage
	ok := s.WithBooking(func(d *booking.Draft) {
		if err := fn(d); err != nil {
			page := h.bookingPage(d)
			page.Alert = booking.UserMessage(err)
			failure = &page
		}
	})
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if failure != nil {
		return c.Render(http.StatusUnprocessableEntity, "booking", *failure)
	}
	return c.Redirect(http.StatusSeeOther, "/booking")
}
