package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"p2p-lending-core/internal/domain/request"
	domainReview "p2p-lending-core/internal/domain/review"
	"p2p-lending-core/internal/domain/uow"
	"p2p-lending-core/internal/usecase/risk"
	"p2p-lending-core/pkg/clock"
	"p2p-lending-core/pkg/id"
)

// Auto-decision thresholds applied at intake.
const (
	fastTrackBelow      = 30.0
	additionalDataAbove = 80.0
)

// Decisions are only accepted while the review is still open.
var openStatuses = []domainReview.Status{
	domainReview.StatusPending,
	domainReview.StatusRequiresAdditionalData,
}

// ScoreFunc turns a request's attributes into a risk assessment.
type ScoreFunc func(risk.Input) domainReview.Assessment

// Workflow is the admin review state machine.
type Workflow struct {
	tx    uow.UnitOfWork
	bound *uow.Repos
	score ScoreFunc
	clock clock.Clock
	cfg   Config
	log   *zap.Logger
}

func NewWorkflow(tx uow.UnitOfWork, clk clock.Clock, cfg Config, log *zap.Logger) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{tx: tx, score: risk.Score, clock: clk, cfg: cfg, log: log}
}

// WithScorer returns a copy of the workflow that assesses requests with fn.
func (w *Workflow) WithScorer(fn ScoreFunc) *Workflow {
	c := *w
	c.score = fn
	return &c
}

// In returns a copy of the workflow that runs against r instead of opening its
// own transaction. Callers use it to compose a decision with follow-up writes.
func (w *Workflow) In(r uow.Repos) *Workflow {
	c := *w
	c.bound = &r
	return &c
}

func (w *Workflow) within(ctx context.Context, fn func(r uow.Repos) error) error {
	if w.bound != nil {
		return fn(*w.bound)
	}
	return w.tx.WithinTx(ctx, fn)
}

// Intake scores a freshly stored request and opens its review. Very low risk
// requests are approved on the spot with the requested terms; very high risk
// ones go straight to requires_additional_data.
func (w *Workflow) Intake(ctx context.Context, req *request.Request) (*domainReview.Review, error) {
	var out *domainReview.Review
	err := w.within(ctx, func(r uow.Repos) error {
		if _, err := r.Reviews.GetByLoanID(ctx, req.LoanID); err == nil {
			return domainReview.ErrAlreadyExists
		} else if !errors.Is(err, domainReview.ErrNotFound) {
			return err
		}

		a := w.score(risk.Input{
			Amount:          req.Amount,
			RepaymentPeriod: req.RepaymentPeriod,
			Purpose:         req.Purpose,
			BorrowerRating:  req.BorrowerRating,
			PriorDefaults:   req.PriorDefaults,
			LatePayments:    req.LatePayments,
		})

		rv := &domainReview.Review{
			ReviewID:   id.NewUUID(),
			LoanID:     req.LoanID,
			Status:     domainReview.StatusPending,
			Assessment: a,
		}
		now := w.clock.Now()

		switch {
		case a.Level == domainReview.LevelHigh && a.Score > additionalDataAbove:
			rv.Status = domainReview.StatusRequiresAdditionalData
			rv.Notes = "high risk score: additional documentation required"
		case a.Level == domainReview.LevelLow && a.Score < fastTrackBelow:
			amount, term, rate := req.Amount, req.RepaymentPeriod, w.cfg.FastTrackRate
			rv.Status = domainReview.StatusApproved
			rv.Notes = "auto-approved: low risk"
			rv.ApprovedAmount, rv.ApprovedTerm, rv.ApprovedRate = &amount, &term, &rate
			rv.ReviewedAt = &now
		}

		if err := r.Reviews.Create(ctx, rv); err != nil {
			return err
		}
		if rv.Status == domainReview.StatusApproved {
			req.Status = request.StatusApproved
			if err := r.Requests.Save(ctx, req); err != nil {
				return err
			}
		}
		out = rv
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.log.Info("review opened",
		zap.String("loan_id", out.LoanID),
		zap.String("status", string(out.Status)),
		zap.Float64("risk_score", out.Assessment.Score),
		zap.String("risk_level", string(out.Assessment.Level)),
	)
	return out, nil
}

func (w *Workflow) Approve(ctx context.Context, loanID string, in ApproveInput) (*domainReview.Review, error) {
	if err := validateTerms(in); err != nil {
		return nil, err
	}
	return w.decide(ctx, loanID, openStatuses, func(rv *domainReview.Review, req *request.Request) {
		setTerms(rv, in)
		rv.Status = domainReview.StatusApproved
		req.Status = request.StatusApproved
	})
}

func (w *Workflow) Reject(ctx context.Context, loanID string, in RejectInput) (*domainReview.Review, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", domainReview.ErrInvalidInput)
	}
	return w.decide(ctx, loanID, openStatuses, func(rv *domainReview.Review, req *request.Request) {
		rv.Status = domainReview.StatusRejected
		rv.Reason = reason
		rv.ReviewerID = in.ReviewerID
		if in.Notes != "" {
			rv.Notes = in.Notes
		}
		req.Status = request.StatusRejected
	})
}

func (w *Workflow) RequestAdditionalData(ctx context.Context, loanID string, in DataRequestInput) (*domainReview.Review, error) {
	if len(in.DocumentTypes) == 0 {
		return nil, fmt.Errorf("%w: at least one document type is required", domainReview.ErrInvalidInput)
	}
	return w.decide(ctx, loanID, openStatuses, func(rv *domainReview.Review, _ *request.Request) {
		deadline := w.clock.Now().Add(w.cfg.DocumentsWindow)
		rv.Status = domainReview.StatusRequiresAdditionalData
		rv.RequestedDocuments = append([]string(nil), in.DocumentTypes...)
		rv.DocumentsDeadline = &deadline
		rv.ReviewerID = in.ReviewerID
		if in.Notes != "" {
			rv.Notes = in.Notes
		}
	})
}

// AdjustTerms overwrites the terms of an approved review. The status stays approved.
func (w *Workflow) AdjustTerms(ctx context.Context, loanID string, in ApproveInput) (*domainReview.Review, error) {
	if err := validateTerms(in); err != nil {
		return nil, err
	}
	return w.decide(ctx, loanID, []domainReview.Status{domainReview.StatusApproved}, func(rv *domainReview.Review, _ *request.Request) {
		setTerms(rv, in)
	})
}

func (w *Workflow) Get(ctx context.Context, loanID string) (*domainReview.Review, error) {
	var out *domainReview.Review
	err := w.within(ctx, func(r uow.Repos) error {
		rv, err := r.Reviews.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		out = rv
		return nil
	})
	return out, err
}

// decide loads the review and its request, checks the state guard, applies
// mutate and persists both rows.
func (w *Workflow) decide(ctx context.Context, loanID string, from []domainReview.Status, mutate func(*domainReview.Review, *request.Request)) (*domainReview.Review, error) {
	var out *domainReview.Review
	err := w.within(ctx, func(r uow.Repos) error {
		rv, err := r.Reviews.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		if !statusIn(rv.Status, from) {
			return fmt.Errorf("%w: review is %s", domainReview.ErrInvalidTransition, rv.Status)
		}
		req, err := r.Requests.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}

		prevReq := req.Status
		mutate(rv, req)
		now := w.clock.Now()
		rv.ReviewedAt = &now

		if err := r.Reviews.Save(ctx, rv); err != nil {
			return err
		}
		if req.Status != prevReq {
			if err := r.Requests.Save(ctx, req); err != nil {
				return err
			}
		}
		out = rv
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.log.Info("review decided",
		zap.String("loan_id", loanID),
		zap.String("status", string(out.Status)),
		zap.String("reviewer_id", out.ReviewerID),
	)
	return out, nil
}

func validateTerms(in ApproveInput) error {
	switch {
	case in.Amount <= 0:
		return fmt.Errorf("%w: approved amount must be positive", domainReview.ErrInvalidInput)
	case in.TermMonths <= 0:
		return fmt.Errorf("%w: approved term must be positive", domainReview.ErrInvalidInput)
	case in.Rate < 0:
		return fmt.Errorf("%w: rate must not be negative", domainReview.ErrInvalidInput)
	}
	return nil
}

func setTerms(rv *domainReview.Review, in ApproveInput) {
	amount, term, rate := in.Amount, in.TermMonths, in.Rate
	rv.ApprovedAmount, rv.ApprovedTerm, rv.ApprovedRate = &amount, &term, &rate
	if in.ReviewerID != "" {
		rv.ReviewerID = in.ReviewerID
	}
	if in.Notes != "" {
		rv.Notes = in.Notes
	}
}

func statusIn(s domainReview.Status, set []domainReview.Status) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
