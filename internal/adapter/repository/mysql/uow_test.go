package mysql

import (
	"context"
	"errors"
	"testing"

	loanDomain "p2p-lending-core/internal/domain/loan"
	reminderDomain "p2p-lending-core/internal/domain/reminder"
	"p2p-lending-core/internal/domain/uow"
)

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		l := makeLoan("LN-COMMIT", loanDomain.StatusActive, t0)
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if l.ID == 0 {
			t.Fatalf("loan auto ID not set")
		}
		return r.Schedules.Create(ctx, &reminderDomain.Schedule{
			ScheduleID: "LN-COMMIT:overdue:0", LoanID: "LN-COMMIT", Type: reminderDomain.TypeOverdue,
			ScheduledAt: t0, Status: reminderDomain.StatusPending, MaxAttempts: 3,
		})
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	// Verify post-commit visibility
	if _, err := guow.Repos().Loans.GetByLoanID(ctx, "LN-COMMIT"); err != nil {
		t.Fatalf("loan not visible after commit: %v", err)
	}
	if _, err := guow.Repos().Schedules.GetByScheduleID(ctx, "LN-COMMIT:overdue:0"); err != nil {
		t.Fatalf("schedule not visible after commit: %v", err)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	sentinel := errors.New("stop")

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, makeLoan("LN-RB", loanDomain.StatusActive, t0)); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("want sentinel, got %v", err)
	}
	if _, err := guow.Repos().Loans.GetByLoanID(ctx, "LN-RB"); !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("expected loan absent after rollback, got %v", err)
	}
}

func TestGormUoW_WithinLoanTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)

	if err := guow.Repos().Loans.Create(ctx, makeLoan("LN-RB-TGT", loanDomain.StatusActive, t0)); err != nil {
		t.Fatalf("seed loan: %v", err)
	}

	sentinel := errors.New("stop")
	_ = guow.WithinLoanTx(ctx, "LN-RB-TGT", func(r uow.Repos, l *loanDomain.Loan) error {
		l.Status = loanDomain.StatusCompleted
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		return sentinel // force rollback
	})

	got, err := guow.Repos().Loans.GetByLoanID(ctx, "LN-RB-TGT")
	if err != nil {
		t.Fatalf("post-rollback GetByLoanID: %v", err)
	}
	if got.Status != loanDomain.StatusActive {
		t.Fatalf("expected active after rollback, got %s", got.Status)
	}
}

func TestGormUoW_WithinLoanTx_LoanNotFound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)

	err := guow.WithinLoanTx(ctx, "LN-NOPE", func(r uow.Repos, l *loanDomain.Loan) error {
		t.Fatalf("callback should not be called when loan missing")
		return nil
	})
	if !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
