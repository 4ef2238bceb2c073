package handler

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-assistant/internal/middleware"
	"github.com/iliyamo/cinema-assistant/internal/results"
)

type detailPage struct {
	pageBase
	Show results.Detail
}

// Detail renders the movie detail page for a stored show.  An unknown or
// expired key renders the not-found page.
func (h *UIHandler) Detail(c echo.Context) error {
	middleware.CurrentSession(c).DiscardBooking()
	key := c.Param("key")
	show, ok, err := h.Store.Get(c.Request().Context(), key)
	if err != nil {
		log.Printf("detail: show store lookup %q failed: %v", key, err)
		return c.Render(http.StatusInternalServerError, "notfound", nil)
	}
	if !ok {
		return c.Render(http.StatusNotFound, "notfound", nil)
	}
	return c.Render(http.StatusOK, "detail", detailPage{pageBase: h.base(), Show: results.NewDetail(key, show)})
}

// Movies passes the API's movie list through for the page.
func (h *UIHandler) Movies(c echo.Context) error {
	movies, err := h.API.ListMovies(c.Request().Context())
	if err != nil {
		log.Printf("movies: %v", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "failed to fetch movies"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": movies})
}
