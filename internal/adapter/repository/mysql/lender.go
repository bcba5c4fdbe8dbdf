package mysql

import (
	"context"

	lenderDomain "p2p-lending-core/internal/domain/lender"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LenderRepository struct{ db *gorm.DB }

func NewLenderRepository(db *gorm.DB) *LenderRepository { return &LenderRepository{db: db} }

func (r *LenderRepository) List(ctx context.Context) ([]lenderDomain.Lender, error) {
	var out []lenderDomain.Lender
	err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *LenderRepository) GetByLenderID(ctx context.Context, lenderID string) (*lenderDomain.Lender, error) {
	var out lenderDomain.Lender
	res := r.db.WithContext(ctx).Where("lender_id = ?", lenderID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, lenderDomain.ErrNotFound, nil)
	}
	return &out, nil
}

// Upsert inserts, or updates every mutable column when lender_id exists.
func (r *LenderRepository) Upsert(ctx context.Context, in *lenderDomain.Lender) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "lender_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "available_amount", "risk_preference", "preferred_terms",
			"min_investment", "max_investment", "rating", "updated_at",
		}),
	}).Create(in).Error
}
