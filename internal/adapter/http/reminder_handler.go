package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) ReminderStats(c echo.Context) error {
	st, err := h.uc.GetReminderStats(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// ResetReminder re-arms a failed reminder for immediate delivery.
func (h *Handler) ResetReminder(c echo.Context) error {
	sid := c.Param("schedule_id")
	if sid == "" {
		return badRequest(c, "missing schedule_id path param")
	}
	sc, err := h.uc.ResetReminder(c.Request().Context(), sid)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, sc)
}
