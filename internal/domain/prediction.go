package domain

// Direction is a participant's call on the final price.
type Direction bool

// Direction values.
const (
	Higher Direction = true
	Lower  Direction = false
)

// String returns "higher" or "lower".
func (d Direction) String() string {
	if d {
		return "higher"
	}
	return "lower"
}

// Matches reports whether the direction agrees with a decisive outcome.
func (d Direction) Matches(o Outcome) bool {
	switch o {
	case OutcomeHigher:
		return d == Higher
	case OutcomeLower:
		return d == Lower
	default:
		return false
	}
}

// UserPrediction is one participant's stake on a proposal.
type UserPrediction struct {
	Address    string    // derived from ("prediction", proposal, authority)
	Proposal   string    // proposal address
	Authority  string    // participant
	Prediction Direction // true = higher
	Amount     uint64    // staked lamports, never mutated
	Resolved   bool      // set once by the reward check
	Bump       uint8
}

// Tally summarizes the stakes placed on a proposal.
type Tally struct {
	HigherCount int
	LowerCount  int
	HigherPool  uint64
	LowerPool   uint64
}

// Add accounts for one prediction.
func (t *Tally) Add(p *UserPrediction) {
	if p.Prediction == Higher {
		t.HigherCount++
		t.HigherPool += p.Amount
		return
	}
	t.LowerCount++
	t.LowerPool += p.Amount
}

// Pool returns the total staked on the given side.
func (t Tally) Pool(d Direction) uint64 {
	if d == Higher {
		return t.HigherPool
	}
	return t.LowerPool
}

// Total returns the total staked on both sides.
func (t Tally) Total() uint64 {
	return t.HigherPool + t.LowerPool
}
