package review

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("review not found")
	ErrAlreadyExists     = errors.New("loan request already under review")
	ErrInvalidTransition = errors.New("review not in a state that allows this action")
	ErrInvalidInput      = errors.New("invalid review input")
)

type Status string

const (
	StatusPending                Status = "pending"
	StatusApproved               Status = "approved"
	StatusRejected               Status = "rejected"
	StatusRequiresAdditionalData Status = "requires_additional_data"
)

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Rank orders levels low < medium < high; unknown levels rank as medium.
func (l Level) Rank() int {
	switch l {
	case LevelLow:
		return 1
	case LevelHigh:
		return 3
	default:
		return 2
	}
}

// Assessment is a point-in-time risk evaluation of a loan request.
type Assessment struct {
	Score           float64  `json:"score"`
	Level           Level    `json:"level"`
	Factors         []string `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

// Review is the admin decision record attached to a loan request.
type Review struct {
	ID       uint64 `gorm:"primaryKey;column:id" json:"-"`
	ReviewID string `gorm:"size:36;uniqueIndex:ux_reviews_review_id" json:"review_id"`
	// One review per loan request.
	LoanID string `gorm:"size:32;uniqueIndex:ux_reviews_loan_id" json:"loan_id"`
	Status Status `gorm:"size:32;default:'pending';index" json:"status"`

	Assessment Assessment `gorm:"serializer:json;type:text" json:"risk_assessment"`
	Notes      string     `gorm:"type:text" json:"admin_notes"`
	Reason     string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	ReviewerID string     `gorm:"size:32" json:"reviewer_id,omitempty"`

	ApprovedAmount *float64 `gorm:"type:decimal(18,2)" json:"approved_amount,omitempty"`
	ApprovedTerm   *int     `json:"approved_term,omitempty"`
	ApprovedRate   *float64 `gorm:"type:decimal(6,3)" json:"approved_rate,omitempty"`

	RequestedDocuments []string   `gorm:"serializer:json;type:text" json:"requested_documents,omitempty"`
	DocumentsDeadline  *time.Time `json:"documents_deadline,omitempty"`

	ReviewedAt *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Review) TableName() string { return "admin_reviews" }

// HasTerms reports whether approved amount and term are both set.
func (r *Review) HasTerms() bool {
	return r.ApprovedAmount != nil && *r.ApprovedAmount > 0 && r.ApprovedTerm != nil && *r.ApprovedTerm > 0
}

// Rate returns the approved annual interest rate in percent, zero when unset.
func (r *Review) Rate() float64 {
	if r.ApprovedRate == nil {
		return 0
	}
	return *r.ApprovedRate
}
