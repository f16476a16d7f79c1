package domain

// Proposal is a single prediction round.
type Proposal struct {
	Address    string // caller-supplied account address
	Authority  string // creator, the only identity allowed to settle
	Coin       string // mint of the tracked asset
	Price      uint64 // threshold recorded at creation
	FinalPrice uint64 // 0 until settled
	Executed   bool   // false until settled, then permanently true
	Expiry     int64  // unix seconds; predictions are rejected at or after this time
}

// Outcome is the resolved direction of a settled proposal.
type Outcome string

// Outcome constants.
const (
	OutcomeHigher Outcome = "HIGHER"
	OutcomeLower  Outcome = "LOWER"
	OutcomeTie    Outcome = "TIE"
)

// Outcome compares FinalPrice against Price.
// The result is meaningful only when Executed is true.
func (p *Proposal) Outcome() Outcome {
	switch {
	case p.FinalPrice > p.Price:
		return OutcomeHigher
	case p.FinalPrice < p.Price:
		return OutcomeLower
	default:
		return OutcomeTie
	}
}

// IsOpen reports whether predictions are still accepted at now (unix seconds).
func (p *Proposal) IsOpen(now int64) bool {
	return !p.Executed && now < p.Expiry
}
