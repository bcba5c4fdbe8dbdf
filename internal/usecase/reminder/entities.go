package reminder

import "time"

// Config is the reminder timeline and retry policy.
type Config struct {
	// UpcomingDays are offsets before the due date.
	UpcomingDays []int
	// OverdueDays are offsets after the due date.
	OverdueDays     []int
	FinalNoticeDays int

	MaxAttempts int
	// RetryBase is the delay after the first failed attempt; it doubles per
	// attempt up to RetryCap.
	RetryBase time.Duration
	RetryCap  time.Duration

	PaymentLinkBase string
}

func DefaultConfig() Config {
	return Config{
		UpcomingDays:    []int{7, 3, 1},
		OverdueDays:     []int{1, 3, 7, 14},
		FinalNoticeDays: 30,
		MaxAttempts:     3,
		RetryBase:       time.Hour,
		RetryCap:        24 * time.Hour,
		PaymentLinkBase: "https://app.p2plending.local/pay",
	}
}

// ProcessResult summarizes one ProcessDue pass.
type ProcessResult struct {
	Due       int `json:"due"`
	Sent      int `json:"sent"`
	Retrying  int `json:"retrying"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
	// Errors counts schedules skipped because of storage errors.
	Errors int `json:"errors"`
}
