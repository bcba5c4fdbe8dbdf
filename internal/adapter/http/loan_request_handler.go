package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"p2p-lending-core/internal/usecase/lifecycle"
	"p2p-lending-core/internal/usecase/review"
)

type submitLoanRequestReq struct {
	BorrowerID      string  `json:"borrower_id"      validate:"required,hex32"`
	BorrowerName    string  `json:"borrower_name"    validate:"required,max=128"`
	BorrowerContact string  `json:"borrower_contact" validate:"required,max=128"`
	Amount          float64 `json:"amount"           validate:"gt=0,dec2"`
	RepaymentPeriod int     `json:"repayment_period" validate:"gt=0,lte=360"`
	Purpose         string  `json:"purpose"          validate:"max=64"`
	RiskTier        string  `json:"risk_tier"        validate:"max=16"`
	BorrowerRating  float64 `json:"borrower_rating"  validate:"rating"`
	PriorDefaults   int     `json:"prior_defaults"   validate:"gte=0"`
	LatePayments    int     `json:"late_payments"    validate:"gte=0"`
}

func (h *Handler) SubmitLoanRequest(c echo.Context) error {
	var req submitLoanRequestReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	d, err := h.uc.Submit(c.Request().Context(), lifecycle.SubmitInput(req))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetReview(c echo.Context) error {
	lid, ok := pathLoanID(c)
	if !ok {
		return badRequest(c, errBadLoanID)
	}
	rv, err := h.uc.GetReview(c.Request().Context(), lid)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rv)
}

func (h *Handler) GetMatches(c echo.Context) error {
	lid, ok := pathLoanID(c)
	if !ok {
		return badRequest(c, errBadLoanID)
	}
	ms, err := h.uc.Matches(c.Request().Context(), lid)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": lid, "matches": ms})
}

type termsReq struct {
	Amount     float64 `json:"amount"      validate:"gt=0,dec2"`
	TermMonths int     `json:"term_months" validate:"gt=0,lte=360"`
	Rate       float64 `json:"rate"        validate:"gte=0,lte=100"`
	Notes      string  `json:"notes"`
	ReviewerID string  `json:"reviewer_id" validate:"required,max=32"`
}

func (r termsReq) input() review.ApproveInput {
	return review.ApproveInput{Amount: r.Amount, TermMonths: r.TermMonths, Rate: r.Rate, Notes: r.Notes, ReviewerID: r.ReviewerID}
}

func (h *Handler) Approve(c echo.Context) error {
	return h.terms(c, h.uc.Approve)
}

func (h *Handler) AdjustTerms(c echo.Context) error {
	return h.terms(c, h.uc.AdjustTerms)
}

func (h *Handler) terms(c echo.Context, act func(ctx context.Context, loanID string, in review.ApproveInput) (*lifecycle.Decision, error)) error {
	lid, ok := pathLoanID(c)
	if !ok {
		return badRequest(c, errBadLoanID)
	}
	var req termsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	d, err := act(c.Request().Context(), lid, req.input())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

type rejectReq struct {
	Reason     string `json:"reason"      validate:"required"`
	Notes      string `json:"notes"`
	ReviewerID string `json:"reviewer_id" validate:"required,max=32"`
}

func (h *Handler) Reject(c echo.Context) error {
	lid, ok := pathLoanID(c)
	if !ok {
		return badRequest(c, errBadLoanID)
	}
	var req rejectReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	rv, err := h.uc.Reject(c.Request().Context(), lid, review.RejectInput(req))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rv)
}

type dataRequestReq struct {
	DocumentTypes []string `json:"document_types" validate:"min=1,dive,required"`
	Notes         string   `json:"notes"`
	ReviewerID    string   `json:"reviewer_id"    validate:"required,max=32"`
}

func (h *Handler) RequestData(c echo.Context) error {
	lid, ok := pathLoanID(c)
	if !ok {
		return badRequest(c, errBadLoanID)
	}
	var req dataRequestReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	rv, err := h.uc.RequestAdditionalData(c.Request().Context(), lid, review.DataRequestInput(req))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rv)
}
