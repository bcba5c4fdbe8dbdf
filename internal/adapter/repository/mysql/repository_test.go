package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	lenderDomain "p2p-lending-core/internal/domain/lender"
	loanDomain "p2p-lending-core/internal/domain/loan"
	reminderDomain "p2p-lending-core/internal/domain/reminder"
	requestDomain "p2p-lending-core/internal/domain/request"
	reviewDomain "p2p-lending-core/internal/domain/review"
	"p2p-lending-core/pkg/id"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func makeLoan(loanID string, status loanDomain.Status, due time.Time) *loanDomain.Loan {
	return &loanDomain.Loan{
		LoanID:          loanID,
		BorrowerID:      "dddddddddddddddddddddddddddddddd",
		BorrowerName:    "Ana",
		BorrowerContact: "+6281100000",
		Principal:       decimal.RequireFromString("2000.00"),
		RemainingAmount: decimal.RequireFromString("1500.50"),
		MonthlyPayment:  decimal.RequireFromString("345.10"),
		InterestRate:    12,
		TermMonths:      6,
		DueDate:         due,
		Status:          status,
		StatusUpdatedAt: t0,
	}
}

func TestRequestRepository_CreateGetSave(t *testing.T) {
	db := openTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	loanID := id.NewID32()
	req := &requestDomain.Request{
		LoanID: loanID, BorrowerID: id.NewID32(), Amount: 2000, RepaymentPeriod: 6,
		Purpose: "personal", BorrowerRating: 4.0, Status: requestDomain.StatusPending, SubmittedAt: t0,
	}
	if err := repo.Create(ctx, req); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.ID == 0 {
		t.Fatalf("Create did not set auto-increment ID")
	}

	req.Status = requestDomain.StatusApproved
	if err := repo.Save(ctx, req); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByLoanID(ctx, loanID)
	if err != nil {
		t.Fatalf("GetByLoanID: %v", err)
	}
	if got.Status != requestDomain.StatusApproved || got.Amount != 2000 || got.Purpose != "personal" {
		t.Errorf("unexpected request: %+v", got)
	}

	if _, err := repo.GetByLoanID(ctx, "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"); !errors.Is(err, requestDomain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestReviewRepository_JSONColumnsAndUniqueLoan(t *testing.T) {
	db := openTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	amount, term, rate := 1800.0, 6, 10.5
	deadline := t0.Add(7 * 24 * time.Hour)
	rv := &reviewDomain.Review{
		ReviewID: id.NewUUID(),
		LoanID:   "LN-1",
		Status:   reviewDomain.StatusApproved,
		Assessment: reviewDomain.Assessment{
			Score: 60, Level: reviewDomain.LevelMedium,
			Factors:         []string{"moderate loan amount"},
			Recommendations: []string{"enable payment reminders"},
		},
		ApprovedAmount:     &amount,
		ApprovedTerm:       &term,
		ApprovedRate:       &rate,
		RequestedDocuments: []string{"payslip"},
		DocumentsDeadline:  &deadline,
	}
	if err := repo.Create(ctx, rv); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByLoanID(ctx, "LN-1")
	if err != nil {
		t.Fatalf("GetByLoanID: %v", err)
	}
	if got.Assessment.Level != reviewDomain.LevelMedium || len(got.Assessment.Factors) != 1 {
		t.Errorf("assessment not round-tripped: %+v", got.Assessment)
	}
	if !got.HasTerms() || *got.ApprovedTerm != 6 || got.Rate() != 10.5 {
		t.Errorf("terms not round-tripped: %+v", got)
	}
	if len(got.RequestedDocuments) != 1 || got.RequestedDocuments[0] != "payslip" {
		t.Errorf("documents not round-tripped: %v", got.RequestedDocuments)
	}

	dup := &reviewDomain.Review{ReviewID: id.NewUUID(), LoanID: "LN-1", Status: reviewDomain.StatusPending}
	if err := repo.Create(ctx, dup); !errors.Is(err, reviewDomain.ErrAlreadyExists) {
		t.Fatalf("second review for a loan: want ErrAlreadyExists, got %v", err)
	}

	if _, err := repo.GetByLoanID(ctx, "LN-404"); !errors.Is(err, reviewDomain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestLenderRepository_Upsert(t *testing.T) {
	db := openTestDB(t)
	repo := NewLenderRepository(db)
	ctx := context.Background()

	l := &lenderDomain.Lender{
		LenderID: "L-1", Name: "First", AvailableAmount: 5000, RiskPreference: reviewDomain.LevelLow,
		PreferredTerms: []int{3, 6}, MinInvestment: 100, MaxInvestment: 2000, Rating: 4.2,
	}
	if err := repo.Upsert(ctx, l); err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}

	again := &lenderDomain.Lender{
		LenderID: "L-1", Name: "First", AvailableAmount: 3000, RiskPreference: reviewDomain.LevelHigh,
		PreferredTerms: []int{12}, MinInvestment: 100, MaxInvestment: 2000, Rating: 4.2,
	}
	if err := repo.Upsert(ctx, again); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("want 1 lender, got %d", len(list))
	}
	got := list[0]
	if got.AvailableAmount != 3000 || got.RiskPreference != reviewDomain.LevelHigh {
		t.Errorf("upsert did not update: %+v", got)
	}
	if len(got.PreferredTerms) != 1 || got.PreferredTerms[0] != 12 {
		t.Errorf("preferred terms: %v", got.PreferredTerms)
	}

	if _, err := repo.GetByLenderID(ctx, "L-404"); !errors.Is(err, lenderDomain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestLoanRepository_CreateGetSave(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	loanID := id.NewID32()
	l := makeLoan(loanID, loanDomain.StatusActive, t0.AddDate(0, 6, 0))
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.ID == 0 {
		t.Fatalf("Create did not set auto-increment ID")
	}

	got, err := repo.GetByLoanID(ctx, loanID)
	if err != nil {
		t.Fatalf("GetByLoanID: %v", err)
	}
	if !got.RemainingAmount.Equal(decimal.RequireFromString("1500.50")) {
		t.Errorf("remaining amount: got %s", got.RemainingAmount)
	}
	if !got.DueDate.Equal(t0.AddDate(0, 6, 0)) {
		t.Errorf("due date: got %v", got.DueDate)
	}

	got.Status = loanDomain.StatusOverdue
	got.RemindersSent = 2
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	locked, err := repo.GetByLoanIDForUpdate(ctx, loanID)
	if err != nil {
		t.Fatalf("GetByLoanIDForUpdate: %v", err)
	}
	if locked.Status != loanDomain.StatusOverdue || locked.RemindersSent != 2 {
		t.Errorf("save not persisted: %+v", locked)
	}

	if err := repo.Create(ctx, makeLoan(loanID, loanDomain.StatusActive, t0)); !errors.Is(err, loanDomain.ErrAlreadyActive) {
		t.Fatalf("duplicate loan: want ErrAlreadyActive, got %v", err)
	}
}

func TestLoanRepository_NotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByLoanID(ctx, "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"); !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("GetByLoanID: want ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByLoanIDForUpdate(ctx, "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"); !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("GetByLoanIDForUpdate: want ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"); !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("Delete: want ErrNotFound, got %v", err)
	}
}

func TestLoanRepository_DeleteAndListByStatus(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	for _, l := range []*loanDomain.Loan{
		makeLoan("LN-A", loanDomain.StatusActive, t0),
		makeLoan("LN-O", loanDomain.StatusOverdue, t0),
		makeLoan("LN-C", loanDomain.StatusCompleted, t0),
		makeLoan("LN-D", loanDomain.StatusDefaulted, t0),
	} {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("Create %s: %v", l.LoanID, err)
		}
	}

	open, err := repo.ListByStatus(ctx, loanDomain.StatusActive, loanDomain.StatusOverdue)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(open) != 2 || open[0].LoanID != "LN-A" || open[1].LoanID != "LN-O" {
		t.Fatalf("unexpected open loans: %+v", open)
	}

	all, err := repo.ListByStatus(ctx)
	if err != nil || len(all) != 4 {
		t.Fatalf("ListByStatus(): got %d, %v", len(all), err)
	}

	if err := repo.Delete(ctx, "LN-A"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByLoanID(ctx, "LN-A"); !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("deleted loan still visible: %v", err)
	}
	all, _ = repo.ListByStatus(ctx)
	if len(all) != 3 {
		t.Fatalf("want 3 loans after delete, got %d", len(all))
	}
}

func TestPaymentRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	applied := t0
	p := &loanDomain.Payment{
		PaymentID: "PAY-1", LoanID: "LN-1", Amount: decimal.RequireFromString("500.25"),
		Status: loanDomain.PaymentCompleted, PaidAt: t0, AppliedAt: &applied,
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, &loanDomain.Payment{PaymentID: "PAY-2", LoanID: "LN-1", Amount: decimal.NewFromInt(10), Status: loanDomain.PaymentPending, PaidAt: t0}); err != nil {
		t.Fatalf("Create second: %v", err)
	}

	dup := &loanDomain.Payment{PaymentID: "PAY-1", LoanID: "LN-1", Amount: decimal.NewFromInt(1), PaidAt: t0}
	if err := repo.Create(ctx, dup); !errors.Is(err, loanDomain.ErrDuplicatePayment) {
		t.Fatalf("duplicate: want ErrDuplicatePayment, got %v", err)
	}

	got, err := repo.GetByPaymentID(ctx, "PAY-1")
	if err != nil {
		t.Fatalf("GetByPaymentID: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("500.25")) || got.AppliedAt == nil {
		t.Errorf("unexpected payment: %+v", got)
	}
	if _, err := repo.GetByPaymentID(ctx, "PAY-404"); !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	list, err := repo.ListByLoanID(ctx, "LN-1")
	if err != nil || len(list) != 2 || list[0].PaymentID != "PAY-1" {
		t.Fatalf("ListByLoanID: %+v, %v", list, err)
	}
}

func TestScheduleRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	mk := func(loanID string, typ reminderDomain.Type, occ int, at time.Time, st reminderDomain.Status) *reminderDomain.Schedule {
		return &reminderDomain.Schedule{
			ScheduleID: reminderDomain.ScheduleID(loanID, typ, occ), LoanID: loanID, Type: typ,
			Occurrence: occ, ScheduledAt: at, Status: st, MaxAttempts: 3,
		}
	}
	rows := []*reminderDomain.Schedule{
		mk("LN-1", reminderDomain.TypeOverdue, 1, t0.Add(-1*time.Hour), reminderDomain.StatusPending),
		mk("LN-1", reminderDomain.TypeOverdue, 0, t0.Add(-2*time.Hour), reminderDomain.StatusPending),
		mk("LN-1", reminderDomain.TypeFinal, 0, t0.Add(48*time.Hour), reminderDomain.StatusPending),
		mk("LN-2", reminderDomain.TypeUpcoming, 0, t0.Add(-3*time.Hour), reminderDomain.StatusFailed),
	}
	for _, s := range rows {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create %s: %v", s.ScheduleID, err)
		}
	}

	due, err := repo.ListDue(ctx, t0)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(due) != 2 || due[0].ScheduleID != "LN-1:overdue:0" || due[1].ScheduleID != "LN-1:overdue:1" {
		t.Fatalf("ListDue order: %+v", due)
	}

	sent := t0
	due[0].Status = reminderDomain.StatusSent
	due[0].SentAt = &sent
	due[0].Attempts = 1
	if err := repo.Save(ctx, &due[0]); err != nil {
		t.Fatalf("Save: %v", err)
	}

	n, err := repo.CountSentSince(ctx, t0.Add(-time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("CountSentSince: got %d, %v", n, err)
	}
	n, err = repo.CountSentSince(ctx, t0.Add(time.Minute))
	if err != nil || n != 0 {
		t.Fatalf("CountSentSince later: got %d, %v", n, err)
	}

	got, err := repo.GetByScheduleID(ctx, "LN-1:overdue:0")
	if err != nil || got.Status != reminderDomain.StatusSent || got.Attempts != 1 {
		t.Fatalf("GetByScheduleID: %+v, %v", got, err)
	}
	if _, err := repo.GetByScheduleID(ctx, "LN-9:final:0"); !errors.Is(err, reminderDomain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	list, err := repo.ListByLoanID(ctx, "LN-1")
	if err != nil || len(list) != 3 {
		t.Fatalf("ListByLoanID: %d, %v", len(list), err)
	}

	pendingGone, err := repo.DeletePendingByLoanID(ctx, "LN-1")
	if err != nil || pendingGone != 2 {
		t.Fatalf("DeletePendingByLoanID: %d, %v", pendingGone, err)
	}
	if n, err := repo.DeletePendingByLoanID(ctx, "LN-2"); err != nil || n != 0 {
		t.Fatalf("failed schedules must survive DeletePendingByLoanID: %d, %v", n, err)
	}
	list, _ = repo.ListByLoanID(ctx, "LN-1")
	if len(list) != 1 || list[0].Status != reminderDomain.StatusSent {
		t.Fatalf("want only the sent schedule left, got %+v", list)
	}

	deleted, err := repo.DeleteByLoanID(ctx, "LN-1")
	if err != nil || deleted != 1 {
		t.Fatalf("DeleteByLoanID: %d, %v", deleted, err)
	}
	list, _ = repo.ListByLoanID(ctx, "LN-1")
	if len(list) != 0 {
		t.Fatalf("schedules left after delete: %d", len(list))
	}
	list, _ = repo.ListByLoanID(ctx, "LN-2")
	if len(list) != 1 {
		t.Fatalf("other loan's schedules touched: %d", len(list))
	}
}
