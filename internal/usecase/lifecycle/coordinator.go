package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"p2p-lending-core/internal/domain/lender"
	"p2p-lending-core/internal/domain/loan"
	domainReminder "p2p-lending-core/internal/domain/reminder"
	"p2p-lending-core/internal/domain/request"
	domainReview "p2p-lending-core/internal/domain/review"
	"p2p-lending-core/internal/domain/uow"
	"p2p-lending-core/internal/usecase/matching"
	"p2p-lending-core/internal/usecase/reminder"
	"p2p-lending-core/internal/usecase/review"
	"p2p-lending-core/internal/usecase/risk"
	"p2p-lending-core/pkg/clock"
	"p2p-lending-core/pkg/id"
)

// Coordinator wires review decisions, active loans, payments and reminders
// together. Every mutation runs under one mutex.
type Coordinator struct {
	mu sync.Mutex

	tx        uow.UnitOfWork
	reviews   *review.Workflow
	reminders *reminder.Scheduler
	matcher   *matching.Engine
	clock     clock.Clock
	cfg       Config
	log       *zap.Logger
}

func NewCoordinator(
	tx uow.UnitOfWork,
	reviews *review.Workflow,
	reminders *reminder.Scheduler,
	matcher *matching.Engine,
	clk clock.Clock,
	cfg Config,
	log *zap.Logger,
) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	if matcher == nil {
		matcher = matching.NewEngine()
	}
	return &Coordinator{
		tx:        tx,
		reviews:   reviews,
		reminders: reminders,
		matcher:   matcher,
		clock:     clk,
		cfg:       cfg,
		log:       log,
	}
}

// Submit stores a new loan request and opens its review. A fast-tracked
// approval activates the loan in the same transaction.
func (c *Coordinator) Submit(ctx context.Context, in SubmitInput) (*Decision, error) {
	if err := validateSubmit(in); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	req := &request.Request{
		LoanID:          id.NewID32(),
		BorrowerID:      in.BorrowerID,
		BorrowerName:    in.BorrowerName,
		BorrowerContact: in.BorrowerContact,
		Amount:          in.Amount,
		RepaymentPeriod: in.RepaymentPeriod,
		Purpose:         strings.TrimSpace(in.Purpose),
		RiskTier:        in.RiskTier,
		BorrowerRating:  in.BorrowerRating,
		PriorDefaults:   in.PriorDefaults,
		LatePayments:    in.LatePayments,
		Status:          request.StatusPending,
		SubmittedAt:     now,
	}

	out := &Decision{Request: req}
	err := c.tx.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Requests.Create(ctx, req); err != nil {
			return err
		}
		rv, err := c.reviews.In(r).Intake(ctx, req)
		if err != nil {
			return err
		}
		out.Review = rv
		if rv.Status == domainReview.StatusApproved {
			l, err := c.initialize(ctx, r, rv, req)
			if err != nil {
				return err
			}
			out.Loan = l
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info("loan request submitted",
		zap.String("loan_id", req.LoanID),
		zap.String("borrower_id", req.BorrowerID),
		zap.String("review_status", string(out.Review.Status)),
	)
	return out, nil
}

func validateSubmit(in SubmitInput) error {
	switch {
	case strings.TrimSpace(in.BorrowerID) == "":
		return fmt.Errorf("%w: borrower id is required", request.ErrInvalidInput)
	case in.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", request.ErrInvalidInput)
	case in.RepaymentPeriod <= 0:
		return fmt.Errorf("%w: repayment period must be positive", request.ErrInvalidInput)
	case in.BorrowerRating < 0 || in.BorrowerRating > 5:
		return fmt.Errorf("%w: borrower rating must be within 0..5", request.ErrInvalidInput)
	case in.PriorDefaults < 0 || in.LatePayments < 0:
		return fmt.Errorf("%w: borrower history counts must not be negative", request.ErrInvalidInput)
	}
	return nil
}

// Approve records the decision and activates the loan.
func (c *Coordinator) Approve(ctx context.Context, loanID string, in review.ApproveInput) (*Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := &Decision{}
	err := c.tx.WithinTx(ctx, func(r uow.Repos) error {
		rv, err := c.reviews.In(r).Approve(ctx, loanID, in)
		if err != nil {
			return err
		}
		req, err := r.Requests.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		l, err := c.initialize(ctx, r, rv, req)
		if err != nil {
			return err
		}
		out.Review, out.Request, out.Loan = rv, req, l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Coordinator) Reject(ctx context.Context, loanID string, in review.RejectInput) (*domainReview.Review, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reviews.Reject(ctx, loanID, in)
}

func (c *Coordinator) RequestAdditionalData(ctx context.Context, loanID string, in review.DataRequestInput) (*domainReview.Review, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reviews.RequestAdditionalData(ctx, loanID, in)
}

// AdjustTerms rewrites approved terms. A loan that is already active keeps its
// schedule; an approved request without a loan is activated.
func (c *Coordinator) AdjustTerms(ctx context.Context, loanID string, in review.ApproveInput) (*Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := &Decision{}
	err := c.tx.WithinTx(ctx, func(r uow.Repos) error {
		rv, err := c.reviews.In(r).AdjustTerms(ctx, loanID, in)
		if err != nil {
			return err
		}
		out.Review = rv

		req, err := r.Requests.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		out.Request = req
		if req.Status != request.StatusApproved {
			return nil
		}
		if _, err := r.Loans.GetByLoanID(ctx, loanID); err == nil {
			return nil
		} else if !errors.Is(err, loan.ErrNotFound) {
			return err
		}
		l, err := c.initialize(ctx, r, rv, req)
		if err != nil {
			return err
		}
		out.Loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// InitializeLoanReminders turns an approved review into an active loan with a
// reminder timeline.
func (c *Coordinator) InitializeLoanReminders(ctx context.Context, loanID string) (*loan.Loan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out *loan.Loan
	err := c.tx.WithinTx(ctx, func(r uow.Repos) error {
		rv, err := r.Reviews.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		req, err := r.Requests.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		out, err = c.initialize(ctx, r, rv, req)
		return err
	})
	return out, err
}

func (c *Coordinator) initialize(ctx context.Context, r uow.Repos, rv *domainReview.Review, req *request.Request) (*loan.Loan, error) {
	if rv.Status != domainReview.StatusApproved || !rv.HasTerms() {
		return nil, loan.ErrNotApproved
	}
	if _, err := r.Loans.GetByLoanID(ctx, rv.LoanID); err == nil {
		return nil, loan.ErrAlreadyActive
	} else if !errors.Is(err, loan.ErrNotFound) {
		return nil, err
	}

	now := c.clock.Now()
	principal := decimal.NewFromFloat(*rv.ApprovedAmount).Round(2)
	term := *rv.ApprovedTerm

	l := &loan.Loan{
		LoanID:          rv.LoanID,
		BorrowerID:      req.BorrowerID,
		BorrowerName:    req.BorrowerName,
		BorrowerContact: req.BorrowerContact,
		Principal:       principal,
		RemainingAmount: principal,
		InterestRate:    rv.Rate(),
		TermMonths:      term,
		MonthlyPayment:  MonthlyPayment(principal, rv.Rate(), term),
		DueDate:         now.AddDate(0, term, 0),
		Status:          loan.StatusActive,
		StatusUpdatedAt: now,
	}
	if err := r.Loans.Create(ctx, l); err != nil {
		return nil, err
	}
	if _, err := c.reminders.In(r).Schedule(ctx, l); err != nil {
		return nil, err
	}

	req.Status = request.StatusActive
	if err := r.Requests.Save(ctx, req); err != nil {
		return nil, err
	}

	c.log.Info("loan activated",
		zap.String("loan_id", l.LoanID),
		zap.String("principal", l.Principal.StringFixed(2)),
		zap.String("monthly_payment", l.MonthlyPayment.StringFixed(2)),
		zap.Time("due_date", l.DueDate),
	)
	return l, nil
}

// MonthlyPayment is principal/term for interest-free loans and the annuity
// payment P*r/(1-(1+r)^-n) otherwise, r being the monthly rate. Rounded to cents.
func MonthlyPayment(principal decimal.Decimal, annualRatePct float64, termMonths int) decimal.Decimal {
	if termMonths <= 0 {
		return principal.Round(2)
	}
	n := decimal.NewFromInt(int64(termMonths))
	if annualRatePct <= 0 {
		return principal.Div(n).Round(2)
	}

	r := decimal.NewFromFloat(annualRatePct).Div(decimal.NewFromInt(1200))
	growth := decimal.NewFromInt(1)
	onePlusR := growth.Add(r)
	for i := 0; i < termMonths; i++ {
		growth = growth.Mul(onePlusR)
	}
	// P*r/(1-(1+r)^-n) == P*r*g/(g-1) with g = (1+r)^n
	return principal.Mul(r).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1))).Round(2)
}

// UpdateLoanStatuses moves past-due loans to overdue, and to defaulted once
// they run past the default threshold. Completed and defaulted loans are
// never revisited. Per-loan errors are logged and skipped.
func (c *Coordinator) UpdateLoanStatuses(ctx context.Context) (StatusUpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateLoanStatuses(ctx)
}

func (c *Coordinator) updateLoanStatuses(ctx context.Context) (StatusUpdateResult, error) {
	var res StatusUpdateResult
	now := c.clock.Now()

	loans, err := c.tx.Repos().Loans.ListByStatus(ctx, loan.StatusActive, loan.StatusOverdue)
	if err != nil {
		return res, err
	}

	for i := range loans {
		l := &loans[i]
		res.Checked++

		next := l.Status
		switch days := l.DaysOverdue(now); {
		case days > c.cfg.DefaultAfterDays:
			next = loan.StatusDefaulted
		case now.After(l.DueDate):
			next = loan.StatusOverdue
		}
		if next == l.Status {
			continue
		}

		prev := l.Status
		l.Status = next
		l.StatusUpdatedAt = now
		if err := c.tx.Repos().Loans.Save(ctx, l); err != nil {
			res.Errors++
			c.log.Error("loan status update failed", zap.String("loan_id", l.LoanID), zap.Error(err))
			continue
		}
		if next == loan.StatusDefaulted {
			res.Defaulted++
		} else {
			res.Overdue++
		}
		c.log.Info("loan status changed",
			zap.String("loan_id", l.LoanID),
			zap.String("from", string(prev)),
			zap.String("to", string(next)),
		)
	}
	return res, nil
}

// DeleteLoan removes an active loan and every one of its schedules.
func (c *Coordinator) DeleteLoan(ctx context.Context, loanID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.tx.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Delete(ctx, loanID); err != nil {
			return err
		}
		_, err := c.reminders.In(r).Clear(ctx, loanID)
		return err
	})
	if err != nil {
		return err
	}
	c.log.Info("loan deleted", zap.String("loan_id", loanID))
	return nil
}

// Tick is the periodic job: status recomputation, then reminder dispatch.
func (c *Coordinator) Tick(ctx context.Context) (TickResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res TickResult
	st, err := c.updateLoanStatuses(ctx)
	res.Statuses = st
	if err != nil {
		c.log.Error("status recomputation failed", zap.Error(err))
	}

	rem, rerr := c.reminders.ProcessDue(ctx)
	res.Reminders = rem
	if rerr != nil {
		return res, rerr
	}
	return res, err
}

// Matches ranks the registered lenders for a loan request.
func (c *Coordinator) Matches(ctx context.Context, loanID string) ([]lender.Match, error) {
	r := c.tx.Repos()
	req, err := r.Requests.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	var level domainReview.Level
	if rv, err := r.Reviews.GetByLoanID(ctx, loanID); err == nil {
		level = rv.Assessment.Level
	} else if errors.Is(err, domainReview.ErrNotFound) {
		level = risk.Score(risk.Input{
			Amount:          req.Amount,
			RepaymentPeriod: req.RepaymentPeriod,
			Purpose:         req.Purpose,
			BorrowerRating:  req.BorrowerRating,
			PriorDefaults:   req.PriorDefaults,
			LatePayments:    req.LatePayments,
		}).Level
	} else {
		return nil, err
	}

	lenders, err := r.Lenders.List(ctx)
	if err != nil {
		return nil, err
	}
	return c.matcher.Find(matching.Candidate{
		LoanID:          req.LoanID,
		Amount:          req.Amount,
		RepaymentPeriod: req.RepaymentPeriod,
		RiskLevel:       level,
		BorrowerRating:  req.BorrowerRating,
	}, lenders), nil
}

func (c *Coordinator) GetReview(ctx context.Context, loanID string) (*domainReview.Review, error) {
	return c.reviews.Get(ctx, loanID)
}

func (c *Coordinator) GetLoan(ctx context.Context, loanID string) (*loan.Loan, error) {
	return c.tx.Repos().Loans.GetByLoanID(ctx, loanID)
}

func (c *Coordinator) ListPayments(ctx context.Context, loanID string) ([]loan.Payment, error) {
	return c.tx.Repos().Payments.ListByLoanID(ctx, loanID)
}

func (c *Coordinator) ListSchedules(ctx context.Context, loanID string) ([]domainReminder.Schedule, error) {
	return c.reminders.List(ctx, loanID)
}

func (c *Coordinator) ResetReminder(ctx context.Context, scheduleID string) (*domainReminder.Schedule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reminders.ResetFailed(ctx, scheduleID)
}

func (c *Coordinator) ListLenders(ctx context.Context) ([]lender.Lender, error) {
	return c.tx.Repos().Lenders.List(ctx)
}

func (c *Coordinator) UpsertLender(ctx context.Context, l *lender.Lender) error {
	switch {
	case strings.TrimSpace(l.LenderID) == "":
		return fmt.Errorf("%w: lender id is required", lender.ErrInvalidInput)
	case l.MinInvestment < 0 || l.MaxInvestment < l.MinInvestment:
		return fmt.Errorf("%w: investment bounds are inconsistent", lender.ErrInvalidInput)
	case l.AvailableAmount < 0:
		return fmt.Errorf("%w: available amount must not be negative", lender.ErrInvalidInput)
	}
	if l.RiskPreference == "" {
		l.RiskPreference = domainReview.LevelMedium
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tx.Repos().Lenders.Upsert(ctx, l)
}
