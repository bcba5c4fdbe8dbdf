package notifier

import (
	"context"

	"go.uber.org/zap"

	"p2p-lending-core/internal/domain/reminder"
)

// LogNotifier writes reminders to the log instead of delivering them. It is
// the transport when no SMS credentials are configured.
type LogNotifier struct{ log *zap.Logger }

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, to reminder.Contact, p reminder.Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.Info("reminder",
		zap.String("to", to.Address),
		zap.String("loan_id", p.LoanID),
		zap.String("type", string(p.Type)),
		zap.String("remaining", p.RemainingAmount.StringFixed(2)),
		zap.Time("due_date", p.DueDate),
		zap.Int("days_overdue", p.DaysOverdue),
		zap.String("body", Render(p)),
	)
	return nil
}
