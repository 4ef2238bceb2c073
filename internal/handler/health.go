package handler

import (
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is used by load balancers and monitoring systems to verify that the
// UI server is running.  It answers 200 even when the chat API is offline;
// the API's status from the startup probe is reported alongside.
func (h *UIHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "api": h.Probe.Status()})
}
