package reminder

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, s *Schedule) error
	Save(ctx context.Context, s *Schedule) error
	GetByScheduleID(ctx context.Context, scheduleID string) (*Schedule, error)
	ListByLoanID(ctx context.Context, loanID string) ([]Schedule, error)
	// ListDue returns pending schedules with ScheduledAt <= now, oldest first.
	ListDue(ctx context.Context, now time.Time) ([]Schedule, error)
	CountSentSince(ctx context.Context, since time.Time) (int64, error)
	DeleteByLoanID(ctx context.Context, loanID string) (int64, error)
	// DeletePendingByLoanID removes only undelivered schedules; sent, failed
	// and cancelled rows stay as history.
	DeletePendingByLoanID(ctx context.Context, loanID string) (int64, error)
}
