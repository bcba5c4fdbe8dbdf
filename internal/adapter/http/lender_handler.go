package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"p2p-lending-core/internal/domain/lender"
	"p2p-lending-core/internal/domain/review"
)

func (h *Handler) ListLenders(c echo.Context) error {
	ls, err := h.uc.ListLenders(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"lenders": ls})
}

type upsertLenderReq struct {
	Name            string  `json:"name"             validate:"required,max=128"`
	AvailableAmount float64 `json:"available_amount" validate:"gte=0,dec2"`
	RiskPreference  string  `json:"risk_preference"  validate:"omitempty,oneof=low medium high"`
	PreferredTerms  []int   `json:"preferred_terms"  validate:"dive,gt=0"`
	MinInvestment   float64 `json:"min_investment"   validate:"gte=0,dec2"`
	MaxInvestment   float64 `json:"max_investment"   validate:"gtefield=MinInvestment,dec2"`
	Rating          float64 `json:"rating"           validate:"rating"`
}

func (h *Handler) UpsertLender(c echo.Context) error {
	lid := strings.TrimSpace(c.Param("lender_id"))
	if lid == "" || len(lid) > 32 {
		return badRequest(c, "invalid lender_id path param")
	}
	var req upsertLenderReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	l := &lender.Lender{
		LenderID:        lid,
		Name:            req.Name,
		AvailableAmount: req.AvailableAmount,
		RiskPreference:  review.Level(req.RiskPreference),
		PreferredTerms:  req.PreferredTerms,
		MinInvestment:   req.MinInvestment,
		MaxInvestment:   req.MaxInvestment,
		Rating:          req.Rating,
	}
	if err := h.uc.UpsertLender(c.Request().Context(), l); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}
