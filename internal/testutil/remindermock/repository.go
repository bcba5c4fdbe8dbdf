package remindermock

import (
	"context"
	"sync"
	"time"

	domain "p2p-lending-core/internal/domain/reminder"
)

var (
	_ domain.Repository = (*Repo)(nil)
	_ domain.Notifier   = (*Notifier)(nil)
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn          func(ctx context.Context, s *domain.Schedule) error
	SaveFn            func(ctx context.Context, s *domain.Schedule) error
	GetByScheduleIDFn func(ctx context.Context, scheduleID string) (*domain.Schedule, error)
	ListByLoanIDFn    func(ctx context.Context, loanID string) ([]domain.Schedule, error)
	ListDueFn         func(ctx context.Context, now time.Time) ([]domain.Schedule, error)
	CountSentSinceFn  func(ctx context.Context, since time.Time) (int64, error)
	DeleteByLoanIDFn  func(ctx context.Context, loanID string) (int64, error)

	DeletePendingByLoanIDFn func(ctx context.Context, loanID string) (int64, error)
}

func (m *Repo) Create(ctx context.Context, s *domain.Schedule) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, s)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, s *domain.Schedule) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, s)
	}
	return nil
}

func (m *Repo) GetByScheduleID(ctx context.Context, scheduleID string) (*domain.Schedule, error) {
	if m.GetByScheduleIDFn != nil {
		return m.GetByScheduleIDFn(ctx, scheduleID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ListByLoanID(ctx context.Context, loanID string) ([]domain.Schedule, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, nil
}

func (m *Repo) ListDue(ctx context.Context, now time.Time) ([]domain.Schedule, error) {
	if m.ListDueFn != nil {
		return m.ListDueFn(ctx, now)
	}
	return nil, nil
}

func (m *Repo) CountSentSince(ctx context.Context, since time.Time) (int64, error) {
	if m.CountSentSinceFn != nil {
		return m.CountSentSinceFn(ctx, since)
	}
	return 0, nil
}

func (m *Repo) DeleteByLoanID(ctx context.Context, loanID string) (int64, error) {
	if m.DeleteByLoanIDFn != nil {
		return m.DeleteByLoanIDFn(ctx, loanID)
	}
	return 0, nil
}

func (m *Repo) DeletePendingByLoanID(ctx context.Context, loanID string) (int64, error) {
	if m.DeletePendingByLoanIDFn != nil {
		return m.DeletePendingByLoanIDFn(ctx, loanID)
	}
	return 0, nil
}

// Sent is one recorded Notifier call.
type Sent struct {
	To      domain.Contact
	Payload domain.Payload
}

// Notifier records every Send. SendFn, when set, decides the result.
type Notifier struct {
	SendFn func(ctx context.Context, to domain.Contact, p domain.Payload) error

	mu   sync.Mutex
	sent []Sent
}

func (n *Notifier) Send(ctx context.Context, to domain.Contact, p domain.Payload) error {
	n.mu.Lock()
	n.sent = append(n.sent, Sent{To: to, Payload: p})
	n.mu.Unlock()
	if n.SendFn != nil {
		return n.SendFn(ctx, to, p)
	}
	return nil
}

// Calls returns a copy of the recorded sends.
func (n *Notifier) Calls() []Sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Sent(nil), n.sent...)
}
