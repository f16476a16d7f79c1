// Package simulation drives complete prediction rounds through the engine.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-prediction/internal/address"
	"solana-prediction/internal/clock"
	"solana-prediction/internal/domain"
	"solana-prediction/internal/market"
)

// ParticipantResult reports one participant's balances through the round.
type ParticipantResult struct {
	Name       string
	Address    string
	Direction  domain.Direction
	Staked     uint64
	AfterStake uint64 // balance right after staking
	Final      uint64 // balance after rewards
}

// Gain returns what the participant received from the vault.
func (p ParticipantResult) Gain() uint64 {
	return p.Final - p.AfterStake
}

// Result contains the outcome of one scenario run.
type Result struct {
	Scenario     string
	Proposal     string
	Outcome      domain.Outcome
	VaultBefore  uint64 // after top-up, before stakes
	VaultAfter   uint64
	Participants []ParticipantResult
	Summary      *market.ResolveSummary
}

// Runner executes scenarios against an engine.
type Runner struct {
	engine *market.Engine
	clock  clock.Clock
}

// NewRunner creates a runner. clk must be the clock the engine reads; when it
// is a *clock.Manual the runner advances it past expiry before settling.
func NewRunner(engine *market.Engine, clk clock.Clock) *Runner {
	return &Runner{engine: engine, clock: clk}
}

// Run plays sc from vault funding to the last reward.
// Steps:
//  1. Initialize the vault if needed and top it up
//  2. Create the proposal expiring after sc.Window
//  3. Fund and stake every participant
//  4. Advance past expiry (manual clocks only) and settle
//  5. Resolve every prediction
func (r *Runner) Run(ctx context.Context, sc Scenario) (*Result, error) {
	if len(sc.Stakes) == 0 {
		return nil, errors.New("scenario has no stakes")
	}

	// 1. Vault
	owner, err := r.vaultOwner(ctx)
	if err != nil {
		return nil, err
	}
	if sc.VaultTopUp > 0 {
		if err := r.engine.Airdrop(ctx, owner, sc.VaultTopUp); err != nil {
			return nil, err
		}
		if _, err := r.engine.TopUpVault(ctx, owner, sc.VaultTopUp); err != nil {
			return nil, fmt.Errorf("top up vault: %w", err)
		}
	}
	vaultBefore, err := r.engine.VaultBalance(ctx)
	if err != nil {
		return nil, err
	}

	// 2. Proposal
	now, err := r.clock.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("read clock: %w", err)
	}
	authority := address.NewRandom()
	proposal, err := r.engine.CreateProposal(ctx, market.CreateProposalRequest{
		Coin:      sc.Coin,
		Price:     sc.Price,
		Expiry:    now + int64(sc.Window/time.Second),
		Authority: authority,
	})
	if err != nil {
		return nil, fmt.Errorf("create proposal: %w", err)
	}

	// 3. Stakes
	participants := make([]ParticipantResult, 0, len(sc.Stakes))
	for _, s := range sc.Stakes {
		addr := address.NewRandom()
		if err := r.engine.Airdrop(ctx, addr, s.Funding); err != nil {
			return nil, err
		}
		_, err := r.engine.MakePrediction(ctx, market.PredictionRequest{
			Proposal:    proposal.Address,
			Participant: addr,
			Direction:   s.Direction,
			Lamports:    s.Lamports,
		})
		if err != nil {
			return nil, fmt.Errorf("stake %s: %w", s.Name, err)
		}
		balance, err := r.engine.Balance(ctx, addr)
		if err != nil {
			return nil, err
		}
		participants = append(participants, ParticipantResult{
			Name:       s.Name,
			Address:    addr,
			Direction:  s.Direction,
			Staked:     s.Lamports,
			AfterStake: balance,
		})
	}

	// 4. Settle
	if manual, ok := r.clock.(*clock.Manual); ok {
		manual.Advance(sc.Window)
	}
	settled, err := r.engine.Settle(ctx, market.SettleRequest{
		Proposal:   proposal.Address,
		FinalPrice: sc.FinalPrice,
		Authority:  authority,
	})
	if err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}

	// 5. Rewards
	summary, err := r.engine.ResolveAll(ctx, proposal.Address, authority)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	for i := range participants {
		if participants[i].Final, err = r.engine.Balance(ctx, participants[i].Address); err != nil {
			return nil, err
		}
	}
	vaultAfter, err := r.engine.VaultBalance(ctx)
	if err != nil {
		return nil, err
	}

	return &Result{
		Scenario:     sc.Name,
		Proposal:     proposal.Address,
		Outcome:      settled.Outcome(),
		VaultBefore:  vaultBefore,
		VaultAfter:   vaultAfter,
		Participants: participants,
		Summary:      summary,
	}, nil
}

// vaultOwner returns the owner of the existing vault, initializing one
// with a fresh owner when none exists.
func (r *Runner) vaultOwner(ctx context.Context) (string, error) {
	vault, err := r.engine.GetVault(ctx)
	if err == nil {
		return vault.Owner, nil
	}
	if !errors.Is(err, market.ErrVaultNotInitialized) {
		return "", err
	}

	owner := address.NewRandom()
	if _, err := r.engine.InitializeVault(ctx, owner); err != nil {
		return "", fmt.Errorf("initialize vault: %w", err)
	}
	return owner, nil
}
