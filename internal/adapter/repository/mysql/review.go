package mysql

import (
	"context"

	reviewDomain "p2p-lending-core/internal/domain/review"

	"gorm.io/gorm"
)

type ReviewRepository struct{ db *gorm.DB }

func NewReviewRepository(db *gorm.DB) *ReviewRepository { return &ReviewRepository{db: db} }

func (r *ReviewRepository) Create(ctx context.Context, in *reviewDomain.Review) error {
	return translate(r.db.WithContext(ctx).Create(in).Error, nil, reviewDomain.ErrAlreadyExists)
}

func (r *ReviewRepository) GetByLoanID(ctx context.Context, loanID string) (*reviewDomain.Review, error) {
	var out reviewDomain.Review
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, reviewDomain.ErrNotFound, nil)
	}
	return &out, nil
}

func (r *ReviewRepository) Save(ctx context.Context, in *reviewDomain.Review) error {
	return r.db.WithContext(ctx).Save(in).Error
}
