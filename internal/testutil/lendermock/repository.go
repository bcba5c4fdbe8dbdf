package lendermock

import (
	"context"

	domain "p2p-lending-core/internal/domain/lender"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	ListFn          func(ctx context.Context) ([]domain.Lender, error)
	GetByLenderIDFn func(ctx context.Context, lenderID string) (*domain.Lender, error)
	UpsertFn        func(ctx context.Context, l *domain.Lender) error
}

func (m *Repo) List(ctx context.Context) ([]domain.Lender, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}

func (m *Repo) GetByLenderID(ctx context.Context, lenderID string) (*domain.Lender, error) {
	if m.GetByLenderIDFn != nil {
		return m.GetByLenderIDFn(ctx, lenderID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Upsert(ctx context.Context, l *domain.Lender) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, l)
	}
	return nil
}
