package risk

import (
	"math"
	"strings"

	"p2p-lending-core/internal/domain/review"
)

const baseScore = 50.0

// Level thresholds on the clamped score.
const (
	lowBelow    = 40.0
	mediumBelow = 70.0
)

var highRiskPurposes = map[string]struct{}{
	"business":           {},
	"investment":         {},
	"debt_consolidation": {},
}

// Input is everything the scorer looks at. History fields default to zero
// when the borrower has no record.
type Input struct {
	Amount          float64
	RepaymentPeriod int
	Purpose         string
	BorrowerRating  float64
	PriorDefaults   int
	LatePayments    int
}

// Score runs the additive point model. It is pure: same input, same output.
func Score(in Input) review.Assessment {
	score := baseScore
	factors := []string{}

	switch {
	case in.Amount > 3000:
		score += 20
		factors = append(factors, "large loan amount")
	case in.Amount > 1500:
		score += 10
		factors = append(factors, "moderate loan amount")
	}

	if in.RepaymentPeriod > 6 {
		score += 15
		factors = append(factors, "long repayment period")
	}

	if _, ok := highRiskPurposes[strings.ToLower(strings.TrimSpace(in.Purpose))]; ok {
		score += 15
		factors = append(factors, "high-risk purpose")
	}

	if in.BorrowerRating < 3.0 {
		score += 20
		factors = append(factors, "low borrower rating")
	} else if in.BorrowerRating > 4.5 {
		score -= 15
		factors = append(factors, "high borrower rating")
	}

	if in.PriorDefaults > 0 {
		score += 25
		factors = append(factors, "previous defaults")
	}
	if in.LatePayments > 2 {
		score += 15
		factors = append(factors, "history of late payments")
	}

	score = math.Max(0, math.Min(100, score))
	level := LevelFor(score)

	return review.Assessment{
		Score:           score,
		Level:           level,
		Factors:         factors,
		Recommendations: recommendations(level),
	}
}

// LevelFor maps a score onto its risk bucket.
func LevelFor(score float64) review.Level {
	switch {
	case score < lowBelow:
		return review.LevelLow
	case score < mediumBelow:
		return review.LevelMedium
	default:
		return review.LevelHigh
	}
}

func recommendations(level review.Level) []string {
	switch level {
	case review.LevelHigh:
		return []string{
			"require a co-signer or guarantor",
			"review collateral before approval",
			"consider a reduced amount or shorter term",
		}
	case review.LevelMedium:
		return []string{
			"enable payment reminders",
			"monitor repayment closely during the first months",
		}
	default:
		return []string{"standard terms apply"}
	}
}
