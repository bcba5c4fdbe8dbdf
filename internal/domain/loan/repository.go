package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	Save(ctx context.Context, l *Loan) error
	Delete(ctx context.Context, loanID string) error
	// ListByStatus returns every loan when no status is given.
	ListByStatus(ctx context.Context, statuses ...Status) ([]Loan, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByPaymentID(ctx context.Context, paymentID string) (*Payment, error)
	ListByLoanID(ctx context.Context, loanID string) ([]Payment, error)
}
