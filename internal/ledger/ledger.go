// Package ledger moves native lamports between accounts inside a storage transaction.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"solana-prediction/internal/storage"
)

// ErrInsufficientFunds is returned when the source account cannot cover a transfer.
var ErrInsufficientFunds = fmt.Errorf("insufficient funds: %w", storage.ErrInsufficientBalance)

// Transfer moves lamports from one account to another.
// Both legs run on the same AccountStore so they commit or roll back together;
// on error the enclosing transaction must be discarded.
// Legs are applied in address order so concurrent transfers over the same pair
// of accounts lock rows in the same order.
// A zero transfer is a no-op; a self-transfer still checks the balance.
func Transfer(ctx context.Context, accounts storage.AccountStore, from, to string, lamports uint64) error {
	if from == "" || to == "" {
		return fmt.Errorf("transfer: %w", storage.ErrInvalidInput)
	}
	if lamports == 0 {
		return nil
	}

	if to < from {
		if err := credit(ctx, accounts, to, lamports); err != nil {
			return err
		}
		return debit(ctx, accounts, from, lamports)
	}
	if err := debit(ctx, accounts, from, lamports); err != nil {
		return err
	}
	return credit(ctx, accounts, to, lamports)
}

func debit(ctx context.Context, accounts storage.AccountStore, from string, lamports uint64) error {
	if err := accounts.Debit(ctx, from, lamports); err != nil {
		if errors.Is(err, storage.ErrInsufficientBalance) {
			return fmt.Errorf("transfer %d lamports from %s: %w", lamports, from, ErrInsufficientFunds)
		}
		return fmt.Errorf("debit %s: %w", from, err)
	}
	return nil
}

func credit(ctx context.Context, accounts storage.AccountStore, to string, lamports uint64) error {
	if err := accounts.Credit(ctx, to, lamports); err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}
	return nil
}

// Airdrop credits lamports to an account out of thin air.
// Used to fund participants on devnet-style setups and in tests.
func Airdrop(ctx context.Context, accounts storage.AccountStore, to string, lamports uint64) error {
	if to == "" {
		return fmt.Errorf("airdrop: %w", storage.ErrInvalidInput)
	}
	if err := accounts.Credit(ctx, to, lamports); err != nil {
		return fmt.Errorf("airdrop to %s: %w", to, err)
	}
	return nil
}
