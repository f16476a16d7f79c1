package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solana-prediction/internal/domain"
	"solana-prediction/internal/ledger"
	"solana-prediction/internal/observability"
	"solana-prediction/internal/storage"
)

// RewardRequest identifies the prediction to resolve.
type RewardRequest struct {
	Proposal    string
	Participant string
	Authority   string // must be the proposal authority
}

// Resolution is the result of one reward check.
type Resolution struct {
	Prediction *domain.UserPrediction
	Outcome    domain.Outcome // raw comparison, TIE included
	Result     string         // ResultWon, ResultLost or ResultRefunded
	Payout     uint64         // lamports moved from the vault to the participant
}

// Won reports whether the participant was paid as a winner.
func (r *Resolution) Won() bool { return r.Result == ResultWon }

// CheckAndReward resolves one prediction of a settled proposal. A winner is
// paid from the vault in the same transaction that marks the prediction
// resolved; losers are marked resolved with no transfer.
func (e *Engine) CheckAndReward(ctx context.Context, req RewardRequest) (_ *Resolution, err error) {
	start := time.Now()
	defer func() { e.observe(opCheckAndReward, start, err) }()

	addr, _, err := predictionAddress(e.programID, req.Proposal, req.Participant)
	if err != nil {
		return nil, err
	}

	var (
		res     *Resolution
		balance uint64
	)
	err = e.store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		p, err := getProposal(ctx, tx, req.Proposal)
		if err != nil {
			return err
		}
		if p.Authority != req.Authority {
			return ErrUnauthorized
		}
		if !p.Executed {
			return ErrProposalNotExecuted
		}

		pred, err := tx.Predictions().GetByAddress(ctx, addr)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s on %s", ErrPredictionNotFound, req.Participant, req.Proposal)
		}
		if err != nil {
			return fmt.Errorf("get prediction: %w", err)
		}
		if pred.Resolved {
			return ErrAlreadyResolved
		}

		var tally domain.Tally
		if e.payout.UsesPools() {
			if tally, err = tallyProposal(ctx, tx, p.Address); err != nil {
				return err
			}
		}
		result, payout, err := decide(p, pred, tally, e.payout, e.tie)
		if err != nil {
			return err
		}

		if payout > 0 {
			if err := ledger.Transfer(ctx, tx.Accounts(), e.vaultAddr, pred.Authority, payout); err != nil {
				return err
			}
			if balance, err = tx.Accounts().Balance(ctx, e.vaultAddr); err != nil {
				return err
			}
		}
		if err := tx.Predictions().MarkResolved(ctx, pred.Address); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return ErrAlreadyResolved
			}
			return fmt.Errorf("mark resolved: %w", err)
		}
		pred.Resolved = true

		res = &Resolution{Prediction: pred, Outcome: p.Outcome(), Result: result, Payout: payout}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordResolution(res.Result, res.Payout)
	if res.Payout > 0 {
		observability.UpdateVaultBalance(balance)
	}
	e.log.Info("prediction resolved",
		zap.String("proposal", req.Proposal),
		zap.String("participant", req.Participant),
		zap.String("outcome", string(res.Outcome)),
		zap.String("result", res.Result),
		zap.Uint64("lamports", res.Payout),
	)

	events := make([]*domain.Event, 0, 2)
	if res.Payout > 0 {
		events = append(events, &domain.Event{
			Kind:     domain.EventPayout,
			Proposal: req.Proposal,
			Account:  req.Participant,
			Lamports: res.Payout,
		})
	}
	events = append(events, &domain.Event{
		Kind:     domain.EventResolve,
		Proposal: req.Proposal,
		Account:  req.Participant,
	})
	e.record(ctx, events...)
	return res, nil
}

// ResolveSummary aggregates a ResolveAll sweep.
type ResolveSummary struct {
	Proposal string
	Resolved int    // predictions resolved by this sweep
	Winners  int    // of which paid as winners
	Refunded int    // of which refunded on a tie
	Paid     uint64 // lamports moved out of the vault
	Skipped  int    // predictions already resolved before or during the sweep
}

func (s *ResolveSummary) add(r *Resolution) {
	s.Resolved++
	s.Paid += r.Payout
	switch r.Result {
	case ResultWon:
		s.Winners++
	case ResultRefunded:
		s.Refunded++
	}
}

// ResolveAll runs CheckAndReward for every unresolved prediction of a settled
// proposal using at most ResolveWorkers concurrent transactions. The first
// failure cancels the remaining work; predictions resolved before it stay resolved.
func (e *Engine) ResolveAll(ctx context.Context, proposal, authority string) (_ *ResolveSummary, err error) {
	start := time.Now()
	defer func() { e.observe(opResolveAll, start, err) }()

	var preds []*domain.UserPrediction
	err = e.store.View(ctx, func(ctx context.Context, tx storage.Tx) error {
		p, err := getProposal(ctx, tx, proposal)
		if err != nil {
			return err
		}
		if p.Authority != authority {
			return ErrUnauthorized
		}
		if !p.Executed {
			return ErrProposalNotExecuted
		}
		preds, err = tx.Predictions().GetByProposal(ctx, proposal)
		return err
	})
	if err != nil {
		return nil, err
	}

	var open []*domain.UserPrediction
	for _, pred := range preds {
		if !pred.Resolved {
			open = append(open, pred)
		}
	}
	// Workers update summary under mu; nothing else touches it until Wait returns.
	summary := &ResolveSummary{Proposal: proposal, Skipped: len(preds) - len(open)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, pred := range open {
		g.Go(func() error {
			res, err := e.CheckAndReward(gctx, RewardRequest{
				Proposal:    proposal,
				Participant: pred.Authority,
				Authority:   authority,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrAlreadyResolved):
				summary.Skipped++
				return nil
			case err != nil:
				return fmt.Errorf("resolve %s: %w", pred.Authority, err)
			}
			summary.add(res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	e.log.Info("proposal resolved",
		zap.String("proposal", proposal),
		zap.Int("resolved", summary.Resolved),
		zap.Int("winners", summary.Winners),
		zap.Uint64("paid", summary.Paid),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func tallyProposal(ctx context.Context, tx storage.Tx, proposal string) (domain.Tally, error) {
	var tally domain.Tally
	preds, err := tx.Predictions().GetByProposal(ctx, proposal)
	if err != nil {
		return tally, fmt.Errorf("list predictions: %w", err)
	}
	for _, p := range preds {
		tally.Add(p)
	}
	return tally, nil
}
