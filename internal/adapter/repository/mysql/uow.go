package mysql

import (
	"context"

	"p2p-lending-core/internal/domain/lender"
	"p2p-lending-core/internal/domain/loan"
	"p2p-lending-core/internal/domain/reminder"
	"p2p-lending-core/internal/domain/request"
	"p2p-lending-core/internal/domain/review"
	"p2p-lending-core/internal/domain/uow"

	"gorm.io/gorm"
)

var _ uow.UnitOfWork = (*GormUoW)(nil)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

// Migrate creates or updates every table the repositories use.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&request.Request{},
		&review.Review{},
		&lender.Lender{},
		&loan.Loan{},
		&loan.Payment{},
		&reminder.Schedule{},
	)
}

func reposFor(db *gorm.DB) uow.Repos {
	return uow.Repos{
		Requests:  &RequestRepository{db: db},
		Reviews:   &ReviewRepository{db: db},
		Lenders:   &LenderRepository{db: db},
		Loans:     &LoanRepository{db: db},
		Payments:  &PaymentRepository{db: db},
		Schedules: &ScheduleRepository{db: db},
	}
}

func (u *GormUoW) Repos() uow.Repos { return reposFor(u.db) }

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the loan row up-front to prevent races
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}
