package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"p2p-lending-core/internal/domain/lender"
	"p2p-lending-core/internal/domain/loan"
	"p2p-lending-core/internal/domain/reminder"
	"p2p-lending-core/internal/domain/request"
	"p2p-lending-core/internal/domain/review"
)

var errDuplicateKey = errors.New("memory: duplicate key")

// ---- loan requests ----

type RequestRepository struct{ s *Store }

func (r *RequestRepository) Create(ctx context.Context, in *request.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[in.LoanID]; ok {
		return errDuplicateKey
	}
	in.ID = r.s.nextID()
	stamp(&in.CreatedAt, &in.UpdatedAt)
	r.s.requests[in.LoanID] = *in
	return nil
}

func (r *RequestRepository) GetByLoanID(ctx context.Context, loanID string) (*request.Request, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.requests[loanID]
	if !ok {
		return nil, request.ErrNotFound
	}
	return &v, nil
}

func (r *RequestRepository) Save(ctx context.Context, in *request.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[in.LoanID]; !ok {
		return request.ErrNotFound
	}
	in.UpdatedAt = time.Now().UTC()
	r.s.requests[in.LoanID] = *in
	return nil
}

// ---- reviews ----

type ReviewRepository struct{ s *Store }

func (r *ReviewRepository) Create(ctx context.Context, in *review.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[in.LoanID]; ok {
		return review.ErrAlreadyExists
	}
	in.ID = r.s.nextID()
	stamp(&in.CreatedAt, &in.UpdatedAt)
	r.s.reviews[in.LoanID] = *in
	return nil
}

func (r *ReviewRepository) GetByLoanID(ctx context.Context, loanID string) (*review.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.reviews[loanID]
	if !ok {
		return nil, review.ErrNotFound
	}
	return &v, nil
}

func (r *ReviewRepository) Save(ctx context.Context, in *review.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[in.LoanID]; !ok {
		return review.ErrNotFound
	}
	in.UpdatedAt = time.Now().UTC()
	r.s.reviews[in.LoanID] = *in
	return nil
}

// ---- lenders ----

type LenderRepository struct{ s *Store }

func (r *LenderRepository) List(ctx context.Context) ([]lender.Lender, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]lender.Lender, 0, len(r.s.lenders))
	for _, v := range r.s.lenders {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *LenderRepository) GetByLenderID(ctx context.Context, lenderID string) (*lender.Lender, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.lenders[lenderID]
	if !ok {
		return nil, lender.ErrNotFound
	}
	return &v, nil
}

func (r *LenderRepository) Upsert(ctx context.Context, in *lender.Lender) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if cur, ok := r.s.lenders[in.LenderID]; ok {
		in.ID = cur.ID
		in.CreatedAt = cur.CreatedAt
		in.UpdatedAt = time.Now().UTC()
	} else {
		in.ID = r.s.nextID()
		stamp(&in.CreatedAt, &in.UpdatedAt)
	}
	r.s.lenders[in.LenderID] = *in
	return nil
}

// ---- active loans ----

type LoanRepository struct{ s *Store }

func (r *LoanRepository) Create(ctx context.Context, in *loan.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.loans[in.LoanID]; ok {
		return loan.ErrAlreadyActive
	}
	in.ID = r.s.nextID()
	stamp(&in.CreatedAt, &in.UpdatedAt)
	r.s.loans[in.LoanID] = *in
	return nil
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loan.Loan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.loans[loanID]
	if !ok {
		return nil, loan.ErrNotFound
	}
	return &v, nil
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loan.Loan, error) {
	return r.GetByLoanID(ctx, loanID)
}

func (r *LoanRepository) Save(ctx context.Context, in *loan.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.loans[in.LoanID]; !ok {
		return loan.ErrNotFound
	}
	in.UpdatedAt = time.Now().UTC()
	r.s.loans[in.LoanID] = *in
	return nil
}

func (r *LoanRepository) Delete(ctx context.Context, loanID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.loans[loanID]; !ok {
		return loan.ErrNotFound
	}
	delete(r.s.loans, loanID)
	return nil
}

func (r *LoanRepository) ListByStatus(ctx context.Context, statuses ...loan.Status) ([]loan.Loan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	want := make(map[loan.Status]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	out := make([]loan.Loan, 0, len(r.s.loans))
	for _, v := range r.s.loans {
		if len(want) == 0 || want[v.Status] {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- payments ----

type PaymentRepository struct{ s *Store }

func (r *PaymentRepository) Create(ctx context.Context, in *loan.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[in.PaymentID]; ok {
		return loan.ErrDuplicatePayment
	}
	in.ID = r.s.nextID()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	r.s.payments[in.PaymentID] = *in
	return nil
}

func (r *PaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*loan.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.payments[paymentID]
	if !ok {
		return nil, loan.ErrNotFound
	}
	return &v, nil
}

func (r *PaymentRepository) ListByLoanID(ctx context.Context, loanID string) ([]loan.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []loan.Payment{}
	for _, v := range r.s.payments {
		if v.LoanID == loanID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- reminder schedules ----

type ScheduleRepository struct{ s *Store }

func (r *ScheduleRepository) Create(ctx context.Context, in *reminder.Schedule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.schedules[in.ScheduleID]; ok {
		return errDuplicateKey
	}
	in.ID = r.s.nextID()
	stamp(&in.CreatedAt, &in.UpdatedAt)
	r.s.schedules[in.ScheduleID] = *in
	return nil
}

func (r *ScheduleRepository) Save(ctx context.Context, in *reminder.Schedule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.schedules[in.ScheduleID]; !ok {
		return reminder.ErrNotFound
	}
	in.UpdatedAt = time.Now().UTC()
	r.s.schedules[in.ScheduleID] = *in
	return nil
}

func (r *ScheduleRepository) GetByScheduleID(ctx context.Context, scheduleID string) (*reminder.Schedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.schedules[scheduleID]
	if !ok {
		return nil, reminder.ErrNotFound
	}
	return &v, nil
}

func (r *ScheduleRepository) ListByLoanID(ctx context.Context, loanID string) ([]reminder.Schedule, error) {
	return r.filter(func(s reminder.Schedule) bool { return s.LoanID == loanID }), nil
}

func (r *ScheduleRepository) ListDue(ctx context.Context, now time.Time) ([]reminder.Schedule, error) {
	return r.filter(func(s reminder.Schedule) bool {
		return s.Status == reminder.StatusPending && !s.ScheduledAt.After(now)
	}), nil
}

func (r *ScheduleRepository) CountSentSince(ctx context.Context, since time.Time) (int64, error) {
	n := len(r.filter(func(s reminder.Schedule) bool {
		return s.Status == reminder.StatusSent && s.SentAt != nil && !s.SentAt.Before(since)
	}))
	return int64(n), nil
}

func (r *ScheduleRepository) DeleteByLoanID(ctx context.Context, loanID string) (int64, error) {
	return r.deleteWhere(func(s reminder.Schedule) bool { return s.LoanID == loanID }), nil
}

func (r *ScheduleRepository) DeletePendingByLoanID(ctx context.Context, loanID string) (int64, error) {
	return r.deleteWhere(func(s reminder.Schedule) bool {
		return s.LoanID == loanID && s.Status == reminder.StatusPending
	}), nil
}

func (r *ScheduleRepository) deleteWhere(match func(reminder.Schedule) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, v := range r.s.schedules {
		if match(v) {
			delete(r.s.schedules, k)
			n++
		}
	}
	return n
}

// filter returns matches ordered by ScheduledAt, then insertion order.
func (r *ScheduleRepository) filter(keep func(reminder.Schedule) bool) []reminder.Schedule {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []reminder.Schedule{}
	for _, v := range r.s.schedules {
		if keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}
