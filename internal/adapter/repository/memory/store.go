// Package memory is a process-local implementation of the repositories. It is
// used when no database is configured and as the fake store in tests.
package memory

import (
	"context"
	"sync"

	"p2p-lending-core/internal/domain/lender"
	"p2p-lending-core/internal/domain/loan"
	"p2p-lending-core/internal/domain/reminder"
	"p2p-lending-core/internal/domain/request"
	"p2p-lending-core/internal/domain/review"
	"p2p-lending-core/internal/domain/uow"
)

// Store holds every table as a map keyed by public id. Rows are stored by
// value so callers never alias stored state.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	seq  uint64

	requests  map[string]request.Request
	reviews   map[string]review.Review
	lenders   map[string]lender.Lender
	loans     map[string]loan.Loan
	payments  map[string]loan.Payment
	schedules map[string]reminder.Schedule
}

var _ uow.UnitOfWork = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		requests:  map[string]request.Request{},
		reviews:   map[string]review.Review{},
		lenders:   map[string]lender.Lender{},
		loans:     map[string]loan.Loan{},
		payments:  map[string]loan.Payment{},
		schedules: map[string]reminder.Schedule{},
	}
}

func (s *Store) Repos() uow.Repos {
	return uow.Repos{
		Requests:  &RequestRepository{s: s},
		Reviews:   &ReviewRepository{s: s},
		Lenders:   &LenderRepository{s: s},
		Loans:     &LoanRepository{s: s},
		Payments:  &PaymentRepository{s: s},
		Schedules: &ScheduleRepository{s: s},
	}
}

// WithinTx runs fn against the live maps and restores a snapshot taken
// beforehand when fn fails or ctx is done by the time it returns.
// Transactions are serialized.
func (s *Store) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	err := fn(s.Repos())
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.restore(snap)
	}
	return err
}

// WithinLoanTx loads the loan before calling fn. Transactions are already
// serialized, so no row lock is needed.
func (s *Store) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return s.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}

type snapshot struct {
	seq       uint64
	requests  map[string]request.Request
	reviews   map[string]review.Review
	lenders   map[string]lender.Lender
	loans     map[string]loan.Loan
	payments  map[string]loan.Payment
	schedules map[string]reminder.Schedule
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		seq:       s.seq,
		requests:  cloneMap(s.requests),
		reviews:   cloneMap(s.reviews),
		lenders:   cloneMap(s.lenders),
		loans:     cloneMap(s.loans),
		payments:  cloneMap(s.payments),
		schedules: cloneMap(s.schedules),
	}
}

func (s *Store) restore(sn snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = sn.seq
	s.requests = sn.requests
	s.reviews = sn.reviews
	s.lenders = sn.lenders
	s.loans = sn.loans
	s.payments = sn.payments
	s.schedules = sn.schedules
}

// nextID hands out numeric primary keys; caller holds s.mu.
func (s *Store) nextID() uint64 {
	s.seq++
	return s.seq
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
