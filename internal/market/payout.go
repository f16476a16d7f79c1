package market

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"solana-prediction/internal/domain"
)

// PayoutPolicy computes what a winning stake receives from the vault.
type PayoutPolicy interface {
	// Name is the config value selecting the policy.
	Name() string

	// UsesPools reports whether Payout reads the pool sizes, so callers can
	// skip tallying the proposal when it does not.
	UsesPools() bool

	// Payout returns the lamports paid for a winning stake.
	Payout(stake, winningPool, losingPool uint64) (uint64, error)
}

// Payout policy names.
const (
	PayoutDouble     = "double"
	PayoutParimutuel = "parimutuel"
)

// DoubleStake pays every winner twice the stake, funded by the vault.
type DoubleStake struct{}

// Name implements PayoutPolicy.
func (DoubleStake) Name() string { return PayoutDouble }

// UsesPools implements PayoutPolicy.
func (DoubleStake) UsesPools() bool { return false }

// Payout returns 2 × stake.
func (DoubleStake) Payout(stake, _, _ uint64) (uint64, error) {
	if stake > math.MaxUint64/2 {
		return 0, fmt.Errorf("double payout of %d lamports overflows: %w", stake, ErrInvalidAmount)
	}
	return 2 * stake, nil
}

// Parimutuel returns the stake plus a pro-rata share of the losing pool,
// rounded down. Winners on an uncontested side get their stake back.
type Parimutuel struct{}

// Name implements PayoutPolicy.
func (Parimutuel) Name() string { return PayoutParimutuel }

// UsesPools implements PayoutPolicy.
func (Parimutuel) UsesPools() bool { return true }

// Payout returns stake + floor(stake × losingPool / winningPool).
func (Parimutuel) Payout(stake, winningPool, losingPool uint64) (uint64, error) {
	if winningPool == 0 || losingPool == 0 {
		return stake, nil
	}
	if stake > winningPool {
		return 0, fmt.Errorf("stake %d exceeds winning pool %d: %w", stake, winningPool, ErrInvalidAmount)
	}

	share, _ := lamports(stake).Mul(lamports(losingPool)).QuoRem(lamports(winningPool), 0)
	total := lamports(stake).Add(share).BigInt()
	if !total.IsUint64() {
		return 0, fmt.Errorf("parimutuel payout overflows: %w", ErrInvalidAmount)
	}
	return total.Uint64(), nil
}

func lamports(n uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
}

// ParsePayout returns the policy registered under name.
func ParsePayout(name string) (PayoutPolicy, error) {
	switch name {
	case "", PayoutDouble:
		return DoubleStake{}, nil
	case PayoutParimutuel:
		return Parimutuel{}, nil
	default:
		return nil, fmt.Errorf("unknown payout policy %q", name)
	}
}

// TieRule decides how a settled proposal with finalPrice == price pays out.
type TieRule string

// Tie rules.
const (
	// TieLower counts a tie as a lower outcome.
	TieLower TieRule = "lower"

	// TieNoWinner pays nobody on a tie.
	TieNoWinner TieRule = "no_winner"

	// TieRefund returns every stake on a tie.
	TieRefund TieRule = "refund"
)

// ParseTieRule validates a configured tie rule.
func ParseTieRule(s string) (TieRule, error) {
	switch r := TieRule(s); r {
	case "":
		return TieLower, nil
	case TieLower, TieNoWinner, TieRefund:
		return r, nil
	default:
		return "", fmt.Errorf("unknown tie rule %q", s)
	}
}

// Resolution results.
const (
	ResultWon      = "won"
	ResultLost     = "lost"
	ResultRefunded = "refunded"
)

// decide returns the result and the lamports owed for pred on settled proposal p.
func decide(p *domain.Proposal, pred *domain.UserPrediction, tally domain.Tally, policy PayoutPolicy, tie TieRule) (string, uint64, error) {
	outcome := p.Outcome()
	if outcome == domain.OutcomeTie {
		switch tie {
		case TieRefund:
			return ResultRefunded, pred.Amount, nil
		case TieNoWinner:
			return ResultLost, 0, nil
		default:
			outcome = domain.OutcomeLower
		}
	}

	if !pred.Prediction.Matches(outcome) {
		return ResultLost, 0, nil
	}

	side := pred.Prediction
	payout, err := policy.Payout(pred.Amount, tally.Pool(side), tally.Pool(!side))
	if err != nil {
		return "", 0, err
	}
	return ResultWon, payout, nil
}
