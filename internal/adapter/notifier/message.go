package notifier

import (
	"fmt"
	"strings"

	"p2p-lending-core/internal/domain/reminder"
)

const dateLayout = "Jan 2, 2006"

// Render turns a payload into the SMS body for its reminder type.
func Render(p reminder.Payload) string {
	name := strings.TrimSpace(p.BorrowerName)
	if name == "" {
		name = "there"
	}
	amount := p.RemainingAmount.StringFixed(2)
	due := p.DueDate.UTC().Format(dateLayout)

	switch p.Type {
	case reminder.TypeUpcoming:
		return fmt.Sprintf("Hi %s, your payment of %s for loan %s is due on %s. Pay here: %s",
			name, amount, p.LoanID, due, p.PaymentLink)
	case reminder.TypeOverdue:
		return fmt.Sprintf("Hi %s, your payment for loan %s is %s overdue (due %s). Outstanding: %s. Pay now: %s",
			name, p.LoanID, days(p.DaysOverdue), due, amount, p.PaymentLink)
	case reminder.TypeFinal:
		return fmt.Sprintf("FINAL NOTICE: %s, loan %s is %s overdue with %s outstanding. Contact us or pay immediately: %s",
			name, p.LoanID, days(p.DaysOverdue), amount, p.PaymentLink)
	default:
		return fmt.Sprintf("Hi %s, a reminder about loan %s: %s outstanding. %s", name, p.LoanID, amount, p.PaymentLink)
	}
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
