package mysql

import (
	"context"
	"time"

	reminderDomain "p2p-lending-core/internal/domain/reminder"

	"gorm.io/gorm"
)

type ScheduleRepository struct{ db *gorm.DB }

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository { return &ScheduleRepository{db: db} }

func (r *ScheduleRepository) Create(ctx context.Context, s *reminderDomain.Schedule) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *ScheduleRepository) Save(ctx context.Context, s *reminderDomain.Schedule) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *ScheduleRepository) GetByScheduleID(ctx context.Context, scheduleID string) (*reminderDomain.Schedule, error) {
	var out reminderDomain.Schedule
	res := r.db.WithContext(ctx).Where("schedule_id = ?", scheduleID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, reminderDomain.ErrNotFound, nil)
	}
	return &out, nil
}

func (r *ScheduleRepository) ListByLoanID(ctx context.Context, loanID string) ([]reminderDomain.Schedule, error) {
	var out []reminderDomain.Schedule
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("scheduled_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *ScheduleRepository) ListDue(ctx context.Context, now time.Time) ([]reminderDomain.Schedule, error) {
	var out []reminderDomain.Schedule
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", reminderDomain.StatusPending, now).
		Order("scheduled_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *ScheduleRepository) CountSentSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&reminderDomain.Schedule{}).
		Where("status = ? AND sent_at >= ?", reminderDomain.StatusSent, since).
		Count(&n).Error
	return n, err
}

// DeleteByLoanID hard-deletes; schedules carry no audit value once the loan is closed.
func (r *ScheduleRepository) DeleteByLoanID(ctx context.Context, loanID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Delete(&reminderDomain.Schedule{})
	return res.RowsAffected, res.Error
}

func (r *ScheduleRepository) DeletePendingByLoanID(ctx context.Context, loanID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("loan_id = ? AND status = ?", loanID, reminderDomain.StatusPending).
		Delete(&reminderDomain.Schedule{})
	return res.RowsAffected, res.Error
}
