package requestmock

import (
	"context"
	"errors"
	"testing"

	domain "p2p-lending-core/internal/domain/request"
)

func TestRepo_UsesProvidedFuncs(t *testing.T) {
	ctx := context.Background()
	req := &domain.Request{LoanID: "LN-1"}
	wantErr := errors.New("boom")

	calls := 0
	m := &Repo{
		CreateFn: func(_ context.Context, got *domain.Request) error {
			calls++
			if got != req {
				t.Fatalf("Create arg mismatch")
			}
			return wantErr
		},
		GetByLoanIDFn: func(_ context.Context, loanID string) (*domain.Request, error) {
			calls++
			if loanID != "LN-1" {
				t.Fatalf("GetByLoanID loanID mismatch: %s", loanID)
			}
			return req, nil
		},
		SaveFn: func(_ context.Context, got *domain.Request) error {
			calls++
			return wantErr
		},
	}

	if err := m.Create(ctx, req); !errors.Is(err, wantErr) {
		t.Fatalf("Create: want %v, got %v", wantErr, err)
	}
	if got, err := m.GetByLoanID(ctx, "LN-1"); err != nil || got != req {
		t.Fatalf("GetByLoanID: got %+v, %v", got, err)
	}
	if err := m.Save(ctx, req); !errors.Is(err, wantErr) {
		t.Fatalf("Save: want %v, got %v", wantErr, err)
	}
	if calls != 3 {
		t.Fatalf("want 3 calls, got %d", calls)
	}
}

func TestRepo_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &Repo{}
	if err := m.Create(ctx, &domain.Request{}); err != nil {
		t.Fatalf("Create default: want nil, got %v", err)
	}
	if err := m.Save(ctx, &domain.Request{}); err != nil {
		t.Fatalf("Save default: want nil, got %v", err)
	}
	got, err := m.GetByLoanID(ctx, "x")
	if err != context.Canceled || got != nil {
		t.Fatalf("GetByLoanID default: want nil, context.Canceled; got %+v, %v", got, err)
	}
}
