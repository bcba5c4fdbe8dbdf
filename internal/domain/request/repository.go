package request

import "context"

type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByLoanID(ctx context.Context, loanID string) (*Request, error)
	Save(ctx context.Context, r *Request) error
}
