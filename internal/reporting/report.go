// Package reporting renders round reports as Markdown and CSV.
package reporting

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"solana-prediction/internal/domain"
	"solana-prediction/internal/simulation"
	"solana-prediction/internal/verification"
)

// Report describes one completed round.
type Report struct {
	GeneratedAt time.Time
	Scenario    string
	Proposal    string
	Price       uint64
	FinalPrice  uint64
	Outcome     domain.Outcome

	VaultBefore uint64
	VaultAfter  uint64
	Paid        uint64
	Winners     int

	Participants []ParticipantRow

	// Reconciliation is nil when the event log was not checked.
	Reconciliation *verification.VerificationResult
}

// ParticipantRow is one line of the participant table.
type ParticipantRow struct {
	Name       string
	Address    string
	Direction  domain.Direction
	Staked     uint64
	AfterStake uint64
	Final      uint64
	Gain       uint64
}

// Build assembles a report from a scenario run.
func Build(sc simulation.Scenario, res *simulation.Result, rec *verification.VerificationResult, now time.Time) *Report {
	r := &Report{
		GeneratedAt:    now.UTC(),
		Scenario:       res.Scenario,
		Proposal:       res.Proposal,
		Price:          sc.Price,
		FinalPrice:     sc.FinalPrice,
		Outcome:        res.Outcome,
		VaultBefore:    res.VaultBefore,
		VaultAfter:     res.VaultAfter,
		Reconciliation: rec,
	}
	if res.Summary != nil {
		r.Paid = res.Summary.Paid
		r.Winners = res.Summary.Winners
	}
	for _, p := range res.Participants {
		r.Participants = append(r.Participants, ParticipantRow{
			Name:       p.Name,
			Address:    p.Address,
			Direction:  p.Direction,
			Staked:     p.Staked,
			AfterStake: p.AfterStake,
			Final:      p.Final,
			Gain:       p.Gain(),
		})
	}
	return r
}

// SOL formats lamports as a decimal SOL amount.
func SOL(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9).String()
}
