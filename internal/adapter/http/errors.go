package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"p2p-lending-core/internal/domain/lender"
	"p2p-lending-core/internal/domain/loan"
	"p2p-lending-core/internal/domain/reminder"
	"p2p-lending-core/internal/domain/request"
	"p2p-lending-core/internal/domain/review"
)

// statusFor maps domain errors → HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, request.ErrInvalidInput),
		errors.Is(err, review.ErrInvalidInput),
		errors.Is(err, lender.ErrInvalidInput),
		errors.Is(err, loan.ErrInvalidPayment):
		return http.StatusUnprocessableEntity
	case errors.Is(err, request.ErrNotFound),
		errors.Is(err, review.ErrNotFound),
		errors.Is(err, loan.ErrNotFound),
		errors.Is(err, reminder.ErrNotFound),
		errors.Is(err, lender.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, review.ErrInvalidTransition),
		errors.Is(err, review.ErrAlreadyExists),
		errors.Is(err, loan.ErrDuplicatePayment),
		errors.Is(err, loan.ErrAlreadyActive),
		errors.Is(err, loan.ErrNotApproved),
		errors.Is(err, reminder.ErrNotRetryable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c echo.Context, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.log.Errorw("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		return c.JSON(code, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func invalid(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Details: ToFieldErrors(err),
	})
}
