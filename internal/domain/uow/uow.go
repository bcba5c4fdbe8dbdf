package uow

import (
	"context"

	"p2p-lending-core/internal/domain/lender"
	"p2p-lending-core/internal/domain/loan"
	"p2p-lending-core/internal/domain/reminder"
	"p2p-lending-core/internal/domain/request"
	"p2p-lending-core/internal/domain/review"
)

// Repos is the set of repositories bound to one unit of work.
type Repos struct {
	Requests  request.Repository
	Reviews   review.Repository
	Lenders   lender.Repository
	Loans     loan.Repository
	Payments  loan.PaymentRepository
	Schedules reminder.Repository
}

type UnitOfWork interface {
	// Repos returns repositories outside any transaction.
	Repos() Repos
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinLoanTx is WithinTx with the active loan row locked up-front.
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
