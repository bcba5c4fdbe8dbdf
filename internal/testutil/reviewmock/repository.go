package reviewmock

import (
	"context"

	domain "p2p-lending-core/internal/domain/review"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn      func(ctx context.Context, r *domain.Review) error
	GetByLoanIDFn func(ctx context.Context, loanID string) (*domain.Review, error)
	SaveFn        func(ctx context.Context, r *domain.Review) error
}

func (m *Repo) Create(ctx context.Context, r *domain.Review) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

// GetByLoanID defaults to domain.ErrNotFound so intake paths work unconfigured.
func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Review, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Save(ctx context.Context, r *domain.Review) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, r)
	}
	return nil
}
