package review

import "time"

// Config holds the review policy knobs.
type Config struct {
	// DocumentsWindow is how long a borrower has to supply requested documents.
	DocumentsWindow time.Duration
	// FastTrackRate is the annual rate (percent) stamped on fast-tracked approvals.
	FastTrackRate float64
}

func DefaultConfig() Config {
	return Config{DocumentsWindow: 7 * 24 * time.Hour, FastTrackRate: 12}
}

// ApproveInput carries the approved terms. Also used by AdjustTerms.
type ApproveInput struct {
	Amount     float64
	TermMonths int
	Rate       float64 // annual, percent
	Notes      string
	ReviewerID string
}

type RejectInput struct {
	Reason     string
	Notes      string
	ReviewerID string
}

type DataRequestInput struct {
	DocumentTypes []string
	Notes         string
	ReviewerID    string
}
