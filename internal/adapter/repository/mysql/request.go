package mysql

import (
	"context"

	requestDomain "p2p-lending-core/internal/domain/request"

	"gorm.io/gorm"
)

type RequestRepository struct{ db *gorm.DB }

func NewRequestRepository(db *gorm.DB) *RequestRepository { return &RequestRepository{db: db} }

func (r *RequestRepository) Create(ctx context.Context, in *requestDomain.Request) error {
	return r.db.WithContext(ctx).Create(in).Error
}

func (r *RequestRepository) GetByLoanID(ctx context.Context, loanID string) (*requestDomain.Request, error) {
	var out requestDomain.Request
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, requestDomain.ErrNotFound, nil)
	}
	return &out, nil
}

func (r *RequestRepository) Save(ctx context.Context, in *requestDomain.Request) error {
	return r.db.WithContext(ctx).Save(in).Error
}
