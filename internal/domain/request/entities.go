package request

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("loan request not found")
	ErrInvalidInput = errors.New("invalid loan request")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusFunded    Status = "funded"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Request is a borrower's loan request as submitted to the platform.
type Request struct {
	ID              uint64  `gorm:"primaryKey;column:id" json:"-"`
	LoanID          string  `gorm:"size:32;uniqueIndex:ux_loan_requests_loan_id" json:"loan_id"`
	BorrowerID      string  `gorm:"size:32;index:idx_loan_requests_borrower" json:"borrower_id"`
	BorrowerName    string  `gorm:"size:128" json:"borrower_name"`
	BorrowerContact string  `gorm:"size:128" json:"borrower_contact"`
	Amount          float64 `gorm:"type:decimal(18,2)" json:"amount"`
	// RepaymentPeriod is expressed in months.
	RepaymentPeriod int     `gorm:"column:repayment_period" json:"repayment_period"`
	Purpose         string  `gorm:"size:64" json:"purpose"`
	RiskTier        string  `gorm:"size:16" json:"risk_tier"`
	BorrowerRating  float64 `gorm:"type:decimal(3,2)" json:"borrower_rating"`
	PriorDefaults   int     `json:"prior_defaults"`
	LatePayments    int     `json:"late_payments"`
	Status          Status  `gorm:"size:16;default:'pending';index" json:"status"`

	SubmittedAt time.Time      `json:"submitted_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Request) TableName() string { return "loan_requests" }

// Closed requests accept no further mutation.
func (r *Request) Closed() bool { return r.Status == StatusCompleted }
