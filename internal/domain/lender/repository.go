package lender

import "context"

type Repository interface {
	List(ctx context.Context) ([]Lender, error)
	GetByLenderID(ctx context.Context, lenderID string) (*Lender, error)
	// Upsert inserts or replaces by LenderID.
	Upsert(ctx context.Context, l *Lender) error
}
