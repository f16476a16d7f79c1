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

// InitializeVault creates the singleton vault owned by owner.
// A second call fails with ErrAlreadyInitialized.
func (e *Engine) InitializeVault(ctx context.Context, owner string) (_ *domain.Vault, err error) {
	start := time.Now()
	defer func() { e.observe(opInitializeVault, start, err) }()

	if err := validAddress("owner", owner); err != nil {
		return nil, err
	}

	vault := &domain.Vault{
		Address:     e.vaultAddr,
		Owner:       owner,
		Bump:        e.vaultBump,
		Initialized: true,
	}
	err = e.store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.Vaults().Insert(ctx, vault); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				return ErrAlreadyInitialized
			}
			return fmt.Errorf("insert vault: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("vault initialized", zap.String("vault", vault.Address), zap.String("owner", owner))
	e.record(ctx, &domain.Event{Kind: domain.EventVaultInitialized, Account: owner})
	return vault, nil
}

// TopUpVault moves lamports from owner into the vault and returns the new vault balance.
// Only the vault owner may top up.
func (e *Engine) TopUpVault(ctx context.Context, owner string, lamports uint64) (_ uint64, err error) {
	start := time.Now()
	defer func() { e.observe(opTopUpVault, start, err) }()

	if lamports == 0 {
		return 0, ErrInvalidAmount
	}

	var balance uint64
	err = e.store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		vault, err := e.getVault(ctx, tx)
		if err != nil {
			return err
		}
		if vault.Owner != owner {
			return ErrUnauthorized
		}
		if err := ledger.Transfer(ctx, tx.Accounts(), owner, vault.Address, lamports); err != nil {
			return err
		}
		balance, err = tx.Accounts().Balance(ctx, vault.Address)
		return err
	})
	if err != nil {
		return 0, err
	}

	observability.RecordTopUp(lamports)
	observability.UpdateVaultBalance(balance)
	e.log.Info("vault topped up",
		zap.String("owner", owner),
		zap.Uint64("lamports", lamports),
		zap.Uint64("balance", balance),
	)
	e.record(ctx, &domain.Event{Kind: domain.EventVaultTopUp, Account: owner, Lamports: lamports})
	return balance, nil
}
