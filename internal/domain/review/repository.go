package review

import "context"

type Repository interface {
	// Create fails if the loan already has a review.
	Create(ctx context.Context, r *Review) error
	GetByLoanID(ctx context.Context, loanID string) (*Review, error)
	Save(ctx context.Context, r *Review) error
}
