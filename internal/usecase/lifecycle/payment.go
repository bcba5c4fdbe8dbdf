package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"p2p-lending-core/internal/domain/loan"
	"p2p-lending-core/internal/domain/request"
	"p2p-lending-core/internal/domain/uow"
)

// ProcessPayment records a repayment and applies it to the loan. It reports
// whether the balance changed. Unknown loans yield false with no error; a
// payment id seen before yields loan.ErrDuplicatePayment.
func (c *Coordinator) ProcessPayment(ctx context.Context, in PaymentInput) (bool, error) {
	if strings.TrimSpace(in.PaymentID) == "" {
		return false, fmt.Errorf("%w: payment id is required", loan.ErrInvalidPayment)
	}
	if in.Amount <= 0 {
		return false, fmt.Errorf("%w: amount must be positive", loan.ErrInvalidPayment)
	}
	status := in.Status
	if status == "" {
		status = loan.PaymentCompleted
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	paidAt := in.PaidAt.UTC()
	if in.PaidAt.IsZero() {
		paidAt = now
	}

	applied := false
	var after *loan.Loan
	err := c.tx.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if _, err := r.Payments.GetByPaymentID(ctx, in.PaymentID); err == nil {
			return loan.ErrDuplicatePayment
		} else if !errors.Is(err, loan.ErrNotFound) {
			return err
		}

		p := &loan.Payment{
			PaymentID: in.PaymentID,
			LoanID:    l.LoanID,
			Amount:    decimal.NewFromFloat(in.Amount).Round(2),
			Status:    status,
			PaidAt:    paidAt,
		}
		if status == loan.PaymentCompleted && l.Status != loan.StatusCompleted {
			p.AppliedAt = &now
			applied = true
		}
		if err := r.Payments.Create(ctx, p); err != nil {
			return err
		}
		if !applied {
			return nil
		}

		l.RemainingAmount = decimal.Max(l.RemainingAmount.Sub(p.Amount), decimal.Zero)
		if l.RemainingAmount.IsZero() {
			return c.complete(ctx, r, l, now)
		}

		l.DueDate = paidAt.AddDate(0, 1, 0)
		if l.Status == loan.StatusOverdue {
			l.Status = loan.StatusActive
			l.StatusUpdatedAt = now
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		after = l
		if l.Status == loan.StatusActive {
			_, err := c.reminders.In(r).Reschedule(ctx, l)
			return err
		}
		return nil
	})
	if errors.Is(err, loan.ErrNotFound) {
		c.log.Warn("payment for unknown loan ignored",
			zap.String("loan_id", in.LoanID),
			zap.String("payment_id", in.PaymentID),
		)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if applied {
		fields := []zap.Field{
			zap.String("loan_id", in.LoanID),
			zap.String("payment_id", in.PaymentID),
			zap.Float64("amount", in.Amount),
		}
		if after != nil {
			fields = append(fields,
				zap.String("remaining", after.RemainingAmount.StringFixed(2)),
				zap.Time("next_due", after.DueDate),
			)
		}
		c.log.Info("payment applied", fields...)
	}
	return applied, nil
}

// complete closes a fully repaid loan: loan and request are marked completed
// and every reminder schedule is removed.
func (c *Coordinator) complete(ctx context.Context, r uow.Repos, l *loan.Loan, now time.Time) error {
	l.Status = loan.StatusCompleted
	l.StatusUpdatedAt = now
	if err := r.Loans.Save(ctx, l); err != nil {
		return err
	}

	req, err := r.Requests.GetByLoanID(ctx, l.LoanID)
	switch {
	case err == nil:
		req.Status = request.StatusCompleted
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}
	case !errors.Is(err, request.ErrNotFound):
		return err
	}

	if _, err := c.reminders.In(r).Clear(ctx, l.LoanID); err != nil {
		return err
	}
	c.log.Info("loan completed", zap.String("loan_id", l.LoanID))
	return nil
}
