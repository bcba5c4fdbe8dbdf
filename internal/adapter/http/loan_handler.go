package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"p2p-lending-core/internal/domain/loan"
	"p2p-lending-core/internal/usecase/lifecycle"
)

func (h *Handler) GetLoan(c echo.Context) error {
	lid, ok := pathLoanID(c)
	if !ok {
		return badRequest(c, errBadLoanID)
	}
	ctx := c.Request().Context()
	l, err := h.uc.GetLoan(ctx, lid)
	if err != nil {
		return h.fail(c, err)
	}
	payments, err := h.uc.ListPayments(ctx, lid)
	if err != nil {
		return h.fail(c, err)
	}
	schedules, err := h.uc.ListSchedules(ctx, lid)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"loan":      l,
		"payments":  payments,
		"reminders": schedules,
	})
}

func (h *Handler) DeleteLoan(c echo.Context) error {
	lid, ok := pathLoanID(c)
	if !ok {
		return badRequest(c, errBadLoanID)
	}
	if err := h.uc.DeleteLoan(c.Request().Context(), lid); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type paymentReq struct {
	PaymentID string     `json:"payment_id" validate:"required,max=64"`
	Amount    float64    `json:"amount"     validate:"gt=0,dec2"`
	Status    string     `json:"status"     validate:"omitempty,oneof=pending completed failed"`
	PaidAt    *time.Time `json:"paid_at"`
}

type paymentResp struct {
	PaymentID string     `json:"payment_id"`
	Applied   bool       `json:"applied"`
	Loan      *loan.Loan `json:"loan,omitempty"`
}

// ProcessPayment is the ledger's settlement callback. A payment for an
// unknown loan is not recorded and answers 404.
func (h *Handler) ProcessPayment(c echo.Context) error {
	lid, ok := pathLoanID(c)
	if !ok {
		return badRequest(c, errBadLoanID)
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	in := lifecycle.PaymentInput{
		PaymentID: req.PaymentID,
		LoanID:    lid,
		Amount:    req.Amount,
		Status:    loan.PaymentStatus(req.Status),
	}
	if req.PaidAt != nil {
		in.PaidAt = *req.PaidAt
	}

	ctx := c.Request().Context()
	applied, err := h.uc.ProcessPayment(ctx, in)
	if err != nil {
		return h.fail(c, err)
	}
	l, err := h.uc.GetLoan(ctx, lid)
	if errors.Is(err, loan.ErrNotFound) {
		if applied {
			// deleted between apply and read; the payment still stands
			return c.JSON(http.StatusOK, paymentResp{PaymentID: req.PaymentID, Applied: true})
		}
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: loan.ErrNotFound.Error()})
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, paymentResp{PaymentID: req.PaymentID, Applied: applied, Loan: l})
}
