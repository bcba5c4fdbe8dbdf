package matching

import (
	"math"
	"sort"

	"p2p-lending-core/internal/domain/lender"
	"p2p-lending-core/internal/domain/review"
)

const (
	weightRisk   = 0.40
	weightTerm   = 0.25
	weightAmount = 0.20
	weightRating = 0.15

	// Matches at or below this overall score are dropped.
	minScore = 0.3
)

// Candidate is the loan-request side of a match. RiskLevel comes from the
// request's review; the engine never rescores it.
type Candidate struct {
	LoanID          string
	Amount          float64
	RepaymentPeriod int
	RiskLevel       review.Level
	BorrowerRating  float64
}

type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Find scores every compatible lender and returns matches above the cut-off,
// best first. Equal scores keep the lenders' input order.
func (e *Engine) Find(c Candidate, lenders []lender.Lender) []lender.Match {
	out := make([]lender.Match, 0, len(lenders))
	for _, l := range lenders {
		if !compatible(c, l) {
			continue
		}
		m := lender.Match{
			LoanID:              c.LoanID,
			LenderID:            l.LenderID,
			ProposedAmount:      proposedAmount(c, l),
			RiskCompatibility:   riskCompatibility(c.RiskLevel, l.RiskPreference),
			TermCompatibility:   termCompatibility(c.RepaymentPeriod, l.PreferredTerms),
			AmountCompatibility: amountCompatibility(c.Amount, l),
			RatingCompatibility: ratingCompatibility(c.BorrowerRating, l.Rating),
		}
		m.Score = weightRisk*m.RiskCompatibility +
			weightTerm*m.TermCompatibility +
			weightAmount*m.AmountCompatibility +
			weightRating*m.RatingCompatibility
		if m.Score > minScore {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func compatible(c Candidate, l lender.Lender) bool {
	if c.Amount < l.MinInvestment || c.Amount > l.MaxInvestment {
		return false
	}
	return l.AvailableAmount >= l.MinInvestment
}

func proposedAmount(c Candidate, l lender.Lender) float64 {
	return math.Min(c.Amount, math.Min(l.AvailableAmount, l.MaxInvestment))
}

func riskCompatibility(loan, pref review.Level) float64 {
	switch diff := abs(loan.Rank() - pref.Rank()); diff {
	case 0:
		return 1.0
	case 1:
		return 0.7
	default:
		return 0.3
	}
}

func termCompatibility(term int, preferred []int) float64 {
	if len(preferred) == 0 {
		return 0.2
	}
	lo, hi := preferred[0], preferred[0]
	nearest := math.MaxInt
	for _, p := range preferred {
		if p == term {
			return 1.0
		}
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
		if d := abs(p - term); d < nearest {
			nearest = d
		}
	}
	switch {
	case term >= lo && term <= hi:
		return 0.8
	case nearest <= 2:
		return 0.6
	case nearest <= 4:
		return 0.4
	default:
		return 0.2
	}
}

func amountCompatibility(amount float64, l lender.Lender) float64 {
	switch {
	case amount < l.MinInvestment:
		return 0.3
	case amount > l.MaxInvestment:
		return 0.1
	default:
		return 1.0
	}
}

func ratingCompatibility(borrower, lenderRating float64) float64 {
	diff := math.Abs(borrower - lenderRating)
	switch {
	case diff <= 0.5:
		return 1.0
	case diff <= 1.0:
		return 0.8
	case diff <= 1.5:
		return 0.6
	case diff <= 2.0:
		return 0.4
	default:
		return 0.2
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
