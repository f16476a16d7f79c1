package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-prediction/internal/domain"
	"solana-prediction/internal/ledger"
	"solana-prediction/internal/storage"
)

// GetVault returns the vault record.
func (e *Engine) GetVault(ctx context.Context) (*domain.Vault, error) {
	var v *domain.Vault
	err := e.store.View(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		v, err = e.getVault(ctx, tx)
		return err
	})
	return v, err
}

// VaultBalance returns the lamports held by the vault.
func (e *Engine) VaultBalance(ctx context.Context) (uint64, error) {
	return e.Balance(ctx, e.vaultAddr)
}

// Balance returns the lamports held by account.
func (e *Engine) Balance(ctx context.Context, account string) (uint64, error) {
	var b uint64
	err := e.store.View(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		b, err = tx.Accounts().Balance(ctx, account)
		return err
	})
	return b, err
}

// GetProposal returns the proposal at addr.
func (e *Engine) GetProposal(ctx context.Context, addr string) (*domain.Proposal, error) {
	var p *domain.Proposal
	err := e.store.View(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		p, err = getProposal(ctx, tx, addr)
		return err
	})
	return p, err
}

// ListProposals returns the proposals created by authority, ordered by expiry.
func (e *Engine) ListProposals(ctx context.Context, authority string) ([]*domain.Proposal, error) {
	var out []*domain.Proposal
	err := e.store.View(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		out, err = tx.Proposals().GetByAuthority(ctx, authority)
		return err
	})
	return out, err
}

// GetPrediction returns the prediction of participant on proposal.
func (e *Engine) GetPrediction(ctx context.Context, proposal, participant string) (*domain.UserPrediction, error) {
	addr, _, err := predictionAddress(e.programID, proposal, participant)
	if err != nil {
		return nil, err
	}

	var pred *domain.UserPrediction
	err = e.store.View(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		pred, err = tx.Predictions().GetByAddress(ctx, addr)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s on %s", ErrPredictionNotFound, participant, proposal)
		}
		return err
	})
	return pred, err
}

// ListPredictions returns every prediction of proposal ordered by address.
func (e *Engine) ListPredictions(ctx context.Context, proposal string) ([]*domain.UserPrediction, error) {
	var out []*domain.UserPrediction
	err := e.store.View(ctx, func(ctx context.Context, tx storage.Tx) error {
		if _, err := getProposal(ctx, tx, proposal); err != nil {
			return err
		}
		var err error
		out, err = tx.Predictions().GetByProposal(ctx, proposal)
		return err
	})
	return out, err
}

// Tally sums the stakes of proposal per side.
func (e *Engine) Tally(ctx context.Context, proposal string) (domain.Tally, error) {
	var t domain.Tally
	err := e.store.View(ctx, func(ctx context.Context, tx storage.Tx) error {
		if _, err := getProposal(ctx, tx, proposal); err != nil {
			return err
		}
		var err error
		t, err = tallyProposal(ctx, tx, proposal)
		return err
	})
	return t, err
}

// Airdrop credits lamports to account. Used to fund participants on
// local and devnet setups.
func (e *Engine) Airdrop(ctx context.Context, account string, lamports uint64) (err error) {
	start := time.Now()
	defer func() { e.observe(opAirdrop, start, err) }()

	if err := validAddress("account", account); err != nil {
		return err
	}
	err = e.store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		return ledger.Airdrop(ctx, tx.Accounts(), account, lamports)
	})
	if err != nil {
		return err
	}
	e.log.Debug("airdrop", zap.String("account", account), zap.Uint64("lamports", lamports))
	return nil
}
