package lifecycle

import (
	"context"
	"math"
	"time"

	"p2p-lending-core/internal/domain/loan"
)

// GetReminderStats summarizes open loans and recent reminder traffic.
// Days are UTC calendar days.
func (c *Coordinator) GetReminderStats(ctx context.Context) (ReminderStats, error) {
	var st ReminderStats
	now := c.clock.Now()

	loans, err := c.tx.Repos().Loans.ListByStatus(ctx, loan.StatusActive, loan.StatusOverdue)
	if err != nil {
		return st, err
	}

	dueSoonUntil := now.Add(c.cfg.DueSoonWindow)
	overdueDays := 0
	for i := range loans {
		l := &loans[i]
		switch l.Status {
		case loan.StatusActive:
			st.ActiveLoans++
			if !l.DueDate.Before(now) && !l.DueDate.After(dueSoonUntil) {
				st.DueSoon++
			}
		case loan.StatusOverdue:
			st.OverdueLoans++
			overdueDays += l.DaysOverdue(now)
		}
	}
	if st.OverdueLoans > 0 {
		avg := float64(overdueDays) / float64(st.OverdueLoans)
		st.AverageDaysOverdue = math.Round(avg*100) / 100
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if st.RemindersSentToday, err = c.reminders.CountSentSince(ctx, startOfDay); err != nil {
		return st, err
	}
	if st.RemindersSentWeek, err = c.reminders.CountSentSince(ctx, now.Add(-7*24*time.Hour)); err != nil {
		return st, err
	}
	return st, nil
}
