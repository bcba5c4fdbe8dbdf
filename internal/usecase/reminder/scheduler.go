package reminder

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"p2p-lending-core/internal/domain/loan"
	domain "p2p-lending-core/internal/domain/reminder"
	"p2p-lending-core/internal/domain/uow"
	"p2p-lending-core/pkg/clock"
)

const day = 24 * time.Hour

// Scheduler owns the reminder timeline of every active loan and dispatches
// due reminders through a Notifier.
type Scheduler struct {
	tx       uow.UnitOfWork
	bound    *uow.Repos
	notifier domain.Notifier
	clock    clock.Clock
	cfg      Config
	log      *zap.Logger
}

func NewScheduler(tx uow.UnitOfWork, n domain.Notifier, clk clock.Clock, cfg Config, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{tx: tx, notifier: n, clock: clk, cfg: cfg, log: log}
}

// In returns a copy bound to r; its writes join the caller's transaction.
func (s *Scheduler) In(r uow.Repos) *Scheduler {
	c := *s
	c.bound = &r
	return &c
}

func (s *Scheduler) within(ctx context.Context, fn func(r uow.Repos) error) error {
	if s.bound != nil {
		return fn(*s.bound)
	}
	return s.tx.WithinTx(ctx, fn)
}

func (s *Scheduler) repos() uow.Repos {
	if s.bound != nil {
		return *s.bound
	}
	return s.tx.Repos()
}

// Schedule creates the reminder timeline for l and returns how many schedules
// were created. Upcoming reminders already in the past are skipped; overdue
// and final reminders are always created. Existing identities are left alone.
func (s *Scheduler) Schedule(ctx context.Context, l *loan.Loan) (int, error) {
	var created int
	err := s.within(ctx, func(r uow.Repos) error {
		var err error
		created, err = s.create(ctx, r, s.plan(l, nil))
		return err
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("reminders scheduled",
		zap.String("loan_id", l.LoanID),
		zap.Time("due_date", l.DueDate),
		zap.Int("created", created),
	)
	return created, nil
}

// Reschedule replaces the loan's undelivered reminders with a timeline built
// around the current due date. Sent, failed and cancelled schedules are kept;
// new occurrences are numbered after the highest one kept for their type.
func (s *Scheduler) Reschedule(ctx context.Context, l *loan.Loan) (int, error) {
	var created int
	var dropped int64
	err := s.within(ctx, func(r uow.Repos) error {
		var err error
		if dropped, err = r.Schedules.DeletePendingByLoanID(ctx, l.LoanID); err != nil {
			return err
		}
		kept, err := r.Schedules.ListByLoanID(ctx, l.LoanID)
		if err != nil {
			return err
		}
		next := map[domain.Type]int{}
		for _, sc := range kept {
			if sc.Occurrence >= next[sc.Type] {
				next[sc.Type] = sc.Occurrence + 1
			}
		}
		created, err = s.create(ctx, r, s.plan(l, next))
		return err
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("reminders rescheduled",
		zap.String("loan_id", l.LoanID),
		zap.Time("due_date", l.DueDate),
		zap.Int64("dropped", dropped),
		zap.Int("created", created),
	)
	return created, nil
}

// plan lays out the timeline for l. first holds the starting occurrence per
// type; missing types start at zero.
func (s *Scheduler) plan(l *loan.Loan, first map[domain.Type]int) []domain.Schedule {
	now := s.clock.Now()
	var out []domain.Schedule

	occ := first[domain.TypeUpcoming]
	for _, d := range s.cfg.UpcomingDays {
		at := l.DueDate.Add(-time.Duration(d) * day)
		if !at.After(now) {
			occ++
			continue
		}
		out = append(out, s.newSchedule(l.LoanID, domain.TypeUpcoming, occ, at, s.cfg.MaxAttempts))
		occ++
	}
	for i, d := range s.cfg.OverdueDays {
		at := l.DueDate.Add(time.Duration(d) * day)
		out = append(out, s.newSchedule(l.LoanID, domain.TypeOverdue, first[domain.TypeOverdue]+i, at, s.cfg.MaxAttempts))
	}
	if s.cfg.FinalNoticeDays > 0 {
		at := l.DueDate.Add(time.Duration(s.cfg.FinalNoticeDays) * day)
		out = append(out, s.newSchedule(l.LoanID, domain.TypeFinal, first[domain.TypeFinal], at, 1))
	}
	return out
}

func (s *Scheduler) create(ctx context.Context, r uow.Repos, plan []domain.Schedule) (int, error) {
	created := 0
	for i := range plan {
		sc := plan[i]
		if _, err := r.Schedules.GetByScheduleID(ctx, sc.ScheduleID); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return created, err
		}
		if err := r.Schedules.Create(ctx, &sc); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *Scheduler) newSchedule(loanID string, t domain.Type, occ int, at time.Time, maxAttempts int) domain.Schedule {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return domain.Schedule{
		ScheduleID:  domain.ScheduleID(loanID, t, occ),
		LoanID:      loanID,
		Type:        t,
		Occurrence:  occ,
		ScheduledAt: at.UTC(),
		Status:      domain.StatusPending,
		MaxAttempts: maxAttempts,
	}
}

// ProcessDue dispatches every pending schedule whose time has come, oldest
// first. A failure on one schedule never stops the pass.
func (s *Scheduler) ProcessDue(ctx context.Context) (ProcessResult, error) {
	var res ProcessResult
	now := s.clock.Now()

	due, err := s.repos().Schedules.ListDue(ctx, now)
	if err != nil {
		return res, err
	}
	res.Due = len(due)

	for i := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		outcome, err := s.processOne(ctx, &due[i], now)
		if err != nil {
			res.Errors++
			s.log.Error("reminder processing failed",
				zap.String("schedule_id", due[i].ScheduleID),
				zap.Error(err),
			)
			continue
		}
		switch outcome {
		case domain.StatusSent:
			res.Sent++
		case domain.StatusPending:
			res.Retrying++
		case domain.StatusFailed:
			res.Failed++
		case domain.StatusCancelled:
			res.Cancelled++
		}
	}

	if res.Due > 0 {
		s.log.Info("reminder pass finished",
			zap.Int("due", res.Due),
			zap.Int("sent", res.Sent),
			zap.Int("retrying", res.Retrying),
			zap.Int("failed", res.Failed),
			zap.Int("cancelled", res.Cancelled),
			zap.Int("errors", res.Errors),
		)
	}
	return res, nil
}

// processOne returns the schedule's resulting status.
func (s *Scheduler) processOne(ctx context.Context, sc *domain.Schedule, now time.Time) (domain.Status, error) {
	l, err := s.repos().Loans.GetByLoanID(ctx, sc.LoanID)
	if err != nil && !errors.Is(err, loan.ErrNotFound) {
		return "", err
	}
	if l == nil || errors.Is(err, loan.ErrNotFound) || l.Status == loan.StatusCompleted {
		sc.Status = domain.StatusCancelled
		return sc.Status, s.within(ctx, func(r uow.Repos) error {
			return r.Schedules.Save(ctx, sc)
		})
	}

	sendErr := s.notifier.Send(ctx,
		domain.Contact{Name: l.BorrowerName, Address: l.BorrowerContact},
		s.payload(sc, l, now),
	)

	sc.Attempts++
	sc.LastAttempt = &now
	if sendErr == nil {
		sc.Status = domain.StatusSent
		sc.SentAt = &now
		sc.LastError = ""
		l.RemindersSent++
		l.LastReminderAt = &now
	} else {
		sc.LastError = sendErr.Error()
		if sc.Attempts < sc.MaxAttempts {
			sc.Status = domain.StatusPending
			sc.ScheduledAt = now.Add(backoff(s.cfg.RetryBase, s.cfg.RetryCap, sc.Attempts))
		} else {
			sc.Status = domain.StatusFailed
		}
		s.log.Warn("reminder delivery failed",
			zap.String("schedule_id", sc.ScheduleID),
			zap.Int("attempts", sc.Attempts),
			zap.String("status", string(sc.Status)),
			zap.Error(sendErr),
		)
	}

	err = s.within(ctx, func(r uow.Repos) error {
		if err := r.Schedules.Save(ctx, sc); err != nil {
			return err
		}
		if sendErr == nil {
			return r.Loans.Save(ctx, l)
		}
		return nil
	})
	return sc.Status, err
}

func (s *Scheduler) payload(sc *domain.Schedule, l *loan.Loan, now time.Time) domain.Payload {
	return domain.Payload{
		Type:            sc.Type,
		BorrowerName:    l.BorrowerName,
		LoanID:          l.LoanID,
		RemainingAmount: l.RemainingAmount,
		DueDate:         l.DueDate,
		DaysOverdue:     l.DaysOverdue(now),
		PaymentLink:     strings.TrimRight(s.cfg.PaymentLinkBase, "/") + "/" + l.LoanID,
	}
}

// ResetFailed re-queues a failed schedule for immediate delivery with a fresh
// attempt budget.
func (s *Scheduler) ResetFailed(ctx context.Context, scheduleID string) (*domain.Schedule, error) {
	var out *domain.Schedule
	err := s.within(ctx, func(r uow.Repos) error {
		sc, err := r.Schedules.GetByScheduleID(ctx, scheduleID)
		if err != nil {
			return err
		}
		if sc.Status != domain.StatusFailed {
			return domain.ErrNotRetryable
		}
		sc.Status = domain.StatusPending
		sc.Attempts = 0
		sc.LastError = ""
		sc.ScheduledAt = s.clock.Now()
		if err := r.Schedules.Save(ctx, sc); err != nil {
			return err
		}
		out = sc
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("reminder reset", zap.String("schedule_id", scheduleID))
	return out, nil
}

// Clear deletes every schedule of the loan regardless of state.
func (s *Scheduler) Clear(ctx context.Context, loanID string) (int64, error) {
	var n int64
	err := s.within(ctx, func(r uow.Repos) error {
		var err error
		n, err = r.Schedules.DeleteByLoanID(ctx, loanID)
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("reminders cleared", zap.String("loan_id", loanID), zap.Int64("deleted", n))
	}
	return n, nil
}

func (s *Scheduler) List(ctx context.Context, loanID string) ([]domain.Schedule, error) {
	return s.repos().Schedules.ListByLoanID(ctx, loanID)
}

// CountSentSince is used by reminder statistics.
func (s *Scheduler) CountSentSince(ctx context.Context, since time.Time) (int64, error) {
	return s.repos().Schedules.CountSentSince(ctx, since)
}
