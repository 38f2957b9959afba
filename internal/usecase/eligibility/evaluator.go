package eligibility

// Input is a read-only snapshot of the user plus their active-loan count.
type Input struct {
	IsCitizen         bool
	CreditScore       int
	TotalLoansApplied int
	LoanLimit         float64
	ActiveLoans       int64
}

type Result struct {
	Eligible    bool    `json:"eligible"`
	Reason      string  `json:"reason,omitempty"`
	MaxAmount   float64 `json:"max_amount"`
	CreditScore int     `json:"credit_score"`
	LoanLimit   float64 `json:"loan_limit"`
}

// Score tiers capping the borrowable amount.
const (
	capLowScore  = 10000 // score < 300
	capMidScore  = 25000 // score < 500
	capHighScore = 50000 // score < 700
	capNewUser   = 30000 // no prior applications
)

// Evaluate applies the eligibility rules in order; the first failing rule
// wins. Pure and side-effect free, safe to call repeatedly.
func Evaluate(in Input) Result {
	out := Result{CreditScore: in.CreditScore, LoanLimit: in.LoanLimit}

	if !in.IsCitizen {
		out.Reason = "Only citizens are eligible for loans"
		return out
	}
	if in.ActiveLoans > 0 {
		out.Reason = "You have pending or approved loans. Please settle them first."
		return out
	}

	out.Eligible = true
	out.MaxAmount = in.LoanLimit
	switch {
	case in.CreditScore < 300:
		out.MaxAmount = min(out.MaxAmount, capLowScore)
	case in.CreditScore < 500:
		out.MaxAmount = min(out.MaxAmount, capMidScore)
	case in.CreditScore < 700:
		out.MaxAmount = min(out.MaxAmount, capHighScore)
	}
	// First-time applicants are additionally capped regardless of score.
	if in.TotalLoansApplied == 0 {
		out.MaxAmount = min(out.MaxAmount, capNewUser)
	}
	return out
}
