package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("reminder schedule not found")
	ErrNotRetryable = errors.New("reminder schedule is not in failed state")
)

type Type string

const (
	TypeUpcoming Type = "upcoming"
	TypeOverdue  Type = "overdue"
	TypeFinal    Type = "final"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Schedule is one time-stamped notification job for one loan. Its identity is
// (loan, type, occurrence); ScheduleID encodes that triple.
type Schedule struct {
	ID          uint64     `gorm:"primaryKey;column:id" json:"-"`
	ScheduleID  string     `gorm:"size:64;uniqueIndex:ux_reminder_schedules_schedule_id" json:"schedule_id"`
	LoanID      string     `gorm:"size:32;index" json:"loan_id"`
	Type        Type       `gorm:"size:16" json:"type"`
	Occurrence  int        `json:"occurrence"`
	ScheduledAt time.Time  `gorm:"index" json:"scheduled_at"`
	Status      Status     `gorm:"size:16;index" json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	SentAt      *time.Time `gorm:"index" json:"sent_at,omitempty"`
	LastError   string     `gorm:"type:text" json:"last_error,omitempty"`
	LastAttempt *time.Time `json:"last_attempt_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Schedule) TableName() string { return "reminder_schedules" }

func ScheduleID(loanID string, t Type, occurrence int) string {
	return fmt.Sprintf("%s:%s:%d", loanID, t, occurrence)
}

// Contact is where a reminder is delivered (phone number or email address).
type Contact struct {
	Name    string
	Address string
}

// Payload is the fully resolved reminder content handed to a Notifier.
// Rendering and localization belong to the Notifier.
type Payload struct {
	Type            Type
	BorrowerName    string
	LoanID          string
	RemainingAmount decimal.Decimal
	DueDate         time.Time
	DaysOverdue     int
	PaymentLink     string
}

// Notifier delivers one reminder. A nil error means the dispatch succeeded.
type Notifier interface {
	Send(ctx context.Context, to Contact, p Payload) error
}
