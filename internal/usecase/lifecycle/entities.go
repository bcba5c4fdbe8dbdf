package lifecycle

import (
	"time"

	"p2p-lending-core/internal/domain/loan"
	"p2p-lending-core/internal/domain/request"
	"p2p-lending-core/internal/domain/review"
	"p2p-lending-core/internal/usecase/reminder"
)

type Config struct {
	// DefaultAfterDays is how many days past due a loan may run before it is
	// marked defaulted.
	DefaultAfterDays int
	// DueSoonWindow bounds the "due soon" statistic.
	DueSoonWindow time.Duration
}

func DefaultConfig() Config {
	return Config{DefaultAfterDays: 90, DueSoonWindow: 7 * 24 * time.Hour}
}

type SubmitInput struct {
	BorrowerID      string
	BorrowerName    string
	BorrowerContact string
	Amount          float64
	RepaymentPeriod int // months
	Purpose         string
	RiskTier        string
	BorrowerRating  float64
	PriorDefaults   int
	LatePayments    int
}

// Decision is what an admin action (or an intake) produced. Loan is set when
// the action activated the loan.
type Decision struct {
	Request *request.Request `json:"request,omitempty"`
	Review  *review.Review   `json:"review"`
	Loan    *loan.Loan       `json:"loan,omitempty"`
}

type PaymentInput struct {
	PaymentID string
	LoanID    string
	Amount    float64
	Status    loan.PaymentStatus // empty means completed
	PaidAt    time.Time          // zero means now
}

type StatusUpdateResult struct {
	Checked   int `json:"checked"`
	Overdue   int `json:"overdue"`
	Defaulted int `json:"defaulted"`
	Errors    int `json:"errors"`
}

type TickResult struct {
	Statuses  StatusUpdateResult     `json:"statuses"`
	Reminders reminder.ProcessResult `json:"reminders"`
}

// ReminderStats is the operator dashboard summary.
type ReminderStats struct {
	ActiveLoans        int     `json:"active_loans"`
	DueSoon            int     `json:"due_within_7_days"`
	OverdueLoans       int     `json:"overdue_loans"`
	RemindersSentToday int64   `json:"reminders_sent_today"`
	RemindersSentWeek  int64   `json:"reminders_sent_this_week"`
	AverageDaysOverdue float64 `json:"average_days_overdue"`
}
