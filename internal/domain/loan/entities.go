package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("loan not found")
	ErrDuplicatePayment = errors.New("payment already processed")
	ErrInvalidPayment   = errors.New("invalid payment")
	ErrNotApproved      = errors.New("review is not approved with terms")
	ErrAlreadyActive    = errors.New("loan already active")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusOverdue   Status = "overdue"
	StatusCompleted Status = "completed"
	StatusDefaulted Status = "defaulted"
)

// Loan is an approved, funded loan under repayment. LoanID is shared with the
// originating loan request.
type Loan struct {
	ID              uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID          string          `gorm:"size:32;uniqueIndex:ux_active_loans_loan_id" json:"loan_id"`
	BorrowerID      string          `gorm:"size:32;index" json:"borrower_id"`
	BorrowerName    string          `gorm:"size:128" json:"borrower_name"`
	BorrowerContact string          `gorm:"size:128" json:"borrower_contact"`
	Principal       decimal.Decimal `gorm:"type:decimal(18,2)" json:"principal"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(18,2)" json:"remaining_amount"`
	InterestRate    float64         `gorm:"type:decimal(6,3)" json:"interest_rate"`
	TermMonths      int             `json:"term_months"`
	MonthlyPayment  decimal.Decimal `gorm:"type:decimal(18,2)" json:"monthly_payment"`
	DueDate         time.Time       `gorm:"index" json:"due_date"`
	Status          Status          `gorm:"size:16;default:'active';index" json:"status"`

	RemindersSent  int        `json:"reminders_sent"`
	LastReminderAt *time.Time `json:"last_reminder_at,omitempty"`

	StatusUpdatedAt time.Time      `json:"status_updated_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Loan) TableName() string { return "active_loans" }

// Closed loans are never revisited by status recomputation.
func (l *Loan) Closed() bool {
	return l.Status == StatusCompleted || l.Status == StatusDefaulted
}

// DaysOverdue counts whole days past the due date, zero when not yet due.
func (l *Loan) DaysOverdue(now time.Time) int {
	if !now.After(l.DueDate) {
		return 0
	}
	return int(now.Sub(l.DueDate).Hours() / 24)
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is a repayment event reported by the ledger. PaymentID is the
// idempotency key.
type Payment struct {
	ID        uint64          `gorm:"primaryKey;column:id" json:"-"`
	PaymentID string          `gorm:"size:64;uniqueIndex:ux_payments_payment_id" json:"payment_id"`
	LoanID    string          `gorm:"size:32;index" json:"loan_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	Status    PaymentStatus   `gorm:"size:16" json:"status"`
	PaidAt    time.Time       `json:"paid_at"`
	AppliedAt *time.Time      `json:"applied_at,omitempty"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Payment) TableName() string { return "loan_payments" }
