package lender

import (
	"errors"
	"time"

	"p2p-lending-core/internal/domain/review"
)

var (
	ErrNotFound     = errors.New("lender not found")
	ErrInvalidInput = errors.New("invalid lender")
)

// Lender is a funding source. Matching only reads it; the registry endpoints
// keep AvailableAmount current.
type Lender struct {
	ID              uint64       `gorm:"primaryKey;column:id" json:"-"`
	LenderID        string       `gorm:"size:32;uniqueIndex:ux_lenders_lender_id" json:"lender_id"`
	Name            string       `gorm:"size:128" json:"name"`
	AvailableAmount float64      `gorm:"type:decimal(18,2)" json:"available_amount"`
	RiskPreference  review.Level `gorm:"size:16" json:"risk_preference"`
	PreferredTerms  []int        `gorm:"serializer:json;type:text" json:"preferred_terms"`
	MinInvestment   float64      `gorm:"type:decimal(18,2)" json:"min_investment"`
	MaxInvestment   float64      `gorm:"type:decimal(18,2)" json:"max_investment"`
	Rating          float64      `gorm:"type:decimal(3,2)" json:"rating"`
	CreatedAt       time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Lender) TableName() string { return "lenders" }

// Match is a scored pairing between a loan request and a lender. Never persisted.
type Match struct {
	LoanID              string  `json:"loan_id"`
	LenderID            string  `json:"lender_id"`
	ProposedAmount      float64 `json:"proposed_amount"`
	Score               float64 `json:"score"`
	RiskCompatibility   float64 `json:"risk_compatibility"`
	TermCompatibility   float64 `json:"term_compatibility"`
	AmountCompatibility float64 `json:"amount_compatibility"`
	RatingCompatibility float64 `json:"rating_compatibility"`
}
