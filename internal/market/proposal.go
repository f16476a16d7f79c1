package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-prediction/internal/address"
	"solana-prediction/internal/domain"
	"solana-prediction/internal/storage"
)

// CreateProposalRequest describes a new prediction round.
type CreateProposalRequest struct {
	Address   string // empty allocates a fresh random address
	Coin      string
	Price     uint64
	Expiry    int64 // unix seconds
	Authority string
}

// CreateProposal records a new unsettled proposal. No funds move and
// coin, price and expiry are stored as given.
func (e *Engine) CreateProposal(ctx context.Context, req CreateProposalRequest) (_ *domain.Proposal, err error) {
	start := time.Now()
	defer func() { e.observe(opCreateProposal, start, err) }()

	if err := validAddress("authority", req.Authority); err != nil {
		return nil, err
	}
	addr := req.Address
	if addr == "" {
		addr = address.NewRandom()
	} else if err := validAddress("proposal", addr); err != nil {
		return nil, err
	}

	p := &domain.Proposal{
		Address:   addr,
		Authority: req.Authority,
		Coin:      req.Coin,
		Price:     req.Price,
		Expiry:    req.Expiry,
	}
	err = e.store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.Proposals().Insert(ctx, p); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				return fmt.Errorf("proposal %s: %w", addr, ErrAccountInUse)
			}
			return fmt.Errorf("insert proposal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("proposal created",
		zap.String("proposal", p.Address),
		zap.String("authority", p.Authority),
		zap.String("coin", p.Coin),
		zap.Uint64("price", p.Price),
		zap.Int64("expiry", p.Expiry),
	)
	e.record(ctx, &domain.Event{
		Kind:     domain.EventProposalCreated,
		Proposal: p.Address,
		Account:  p.Authority,
		Price:    p.Price,
	})
	return p, nil
}

// SettleRequest records the final price of a proposal.
type SettleRequest struct {
	Proposal   string
	FinalPrice uint64
	Authority  string
}

// Settle fixes the final price and marks the proposal executed. Only the
// proposal authority may settle, exactly once. Expiry is checked only when
// the engine was built with RequireExpiryForSettle.
func (e *Engine) Settle(ctx context.Context, req SettleRequest) (_ *domain.Proposal, err error) {
	start := time.Now()
	defer func() { e.observe(opSettle, start, err) }()

	var now int64
	if e.requireExpiry {
		if now, err = e.now(ctx); err != nil {
			return nil, err
		}
	}

	var settled *domain.Proposal
	err = e.store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		p, err := getProposal(ctx, tx, req.Proposal)
		if err != nil {
			return err
		}
		if p.Authority != req.Authority {
			return ErrUnauthorized
		}
		if p.Executed {
			return ErrProposalAlreadyExecuted
		}
		if e.requireExpiry && now < p.Expiry {
			return ErrProposalNotExpired
		}

		if err := tx.Proposals().MarkExecuted(ctx, p.Address, req.FinalPrice); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return ErrProposalAlreadyExecuted
			}
			return fmt.Errorf("mark executed: %w", err)
		}
		p.FinalPrice = req.FinalPrice
		p.Executed = true
		settled = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("proposal settled",
		zap.String("proposal", settled.Address),
		zap.Uint64("price", settled.Price),
		zap.Uint64("final_price", settled.FinalPrice),
		zap.String("outcome", string(settled.Outcome())),
	)
	e.record(ctx, &domain.Event{
		Kind:     domain.EventSettle,
		Proposal: settled.Address,
		Account:  settled.Authority,
		Price:    settled.FinalPrice,
	})
	return settled, nil
}
