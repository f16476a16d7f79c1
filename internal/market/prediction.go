package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-prediction/internal/domain"
	"solana-prediction/internal/ledger"
	"solana-prediction/internal/observability"
	"solana-prediction/internal/storage"
)

// PredictionRequest is a participant's stake on a proposal.
type PredictionRequest struct {
	Proposal    string
	Participant string
	Direction   domain.Direction
	Lamports    uint64
}

// MakePrediction records the participant's call and moves the stake into the
// vault in one transaction. One prediction per (proposal, participant).
func (e *Engine) MakePrediction(ctx context.Context, req PredictionRequest) (_ *domain.UserPrediction, err error) {
	start := time.Now()
	defer func() { e.observe(opMakePrediction, start, err) }()

	if req.Lamports == 0 {
		return nil, ErrInvalidAmount
	}
	addr, bump, err := predictionAddress(e.programID, req.Proposal, req.Participant)
	if err != nil {
		return nil, err
	}
	now, err := e.now(ctx)
	if err != nil {
		return nil, err
	}

	pred := &domain.UserPrediction{
		Address:    addr,
		Proposal:   req.Proposal,
		Authority:  req.Participant,
		Prediction: req.Direction,
		Amount:     req.Lamports,
		Bump:       bump,
	}
	err = e.store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		p, err := getProposal(ctx, tx, req.Proposal)
		if err != nil {
			return err
		}
		if now >= p.Expiry {
			return ErrProposalExpired
		}
		if p.Executed {
			return ErrProposalEnded
		}
		vault, err := e.getVault(ctx, tx)
		if err != nil {
			return err
		}

		if err := tx.Predictions().Insert(ctx, pred); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				return fmt.Errorf("prediction %s: %w", addr, ErrAccountInUse)
			}
			return fmt.Errorf("insert prediction: %w", err)
		}
		return ledger.Transfer(ctx, tx.Accounts(), req.Participant, vault.Address, req.Lamports)
	})
	if err != nil {
		return nil, err
	}

	observability.RecordStake(req.Lamports)
	e.log.Info("prediction made",
		zap.String("proposal", pred.Proposal),
		zap.String("participant", pred.Authority),
		zap.Stringer("direction", pred.Prediction),
		zap.Uint64("lamports", pred.Amount),
	)
	e.record(ctx, &domain.Event{
		Kind:     domain.EventStake,
		Proposal: pred.Proposal,
		Account:  pred.Authority,
		Lamports: pred.Amount,
	})
	return pred, nil
}
