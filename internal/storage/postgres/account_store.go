package postgres

import (
	"context"
	"fmt"

	"solana-prediction/internal/storage"
)

// AccountStore implements storage.AccountStore using PostgreSQL.
type AccountStore struct {
	t *tx
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// Balance returns the lamports held by address. Unknown accounts hold 0.
func (s *AccountStore) Balance(ctx context.Context, address string) (uint64, error) {
	if address == "" {
		return 0, storage.ErrInvalidInput
	}

	var lamports int64
	err := s.t.q.QueryRow(ctx, `SELECT lamports FROM accounts WHERE address = $1`, address).Scan(&lamports)
	if err != nil {
		if isNotFoundError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get account balance: %w", err)
	}
	return uint64(lamports), nil
}

// Credit adds lamports to address, creating the account if needed.
func (s *AccountStore) Credit(ctx context.Context, address string, lamports uint64) error {
	if address == "" {
		return storage.ErrInvalidInput
	}
	if err := s.t.checkWritable(); err != nil {
		return err
	}

	amount, err := toBigint(lamports)
	if err != nil {
		return err
	}

	_, err = s.t.q.Exec(ctx, `
		INSERT INTO accounts (address, lamports)
		VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE
		SET lamports = accounts.lamports + EXCLUDED.lamports, updated_at = now()
	`, address, amount)
	if err != nil {
		if isRangeError(err) {
			return fmt.Errorf("%w: balance overflow", storage.ErrInvalidInput)
		}
		return fmt.Errorf("credit account: %w", err)
	}
	return nil
}

// Debit removes lamports from address.
// Returns ErrInsufficientBalance if the balance is lower than lamports.
func (s *AccountStore) Debit(ctx context.Context, address string, lamports uint64) error {
	if address == "" {
		return storage.ErrInvalidInput
	}
	if err := s.t.checkWritable(); err != nil {
		return err
	}
	if lamports == 0 {
		return nil
	}

	amount, err := toBigint(lamports)
	if err != nil {
		return storage.ErrInsufficientBalance
	}

	tag, err := s.t.q.Exec(ctx, `
		UPDATE accounts
		SET lamports = lamports - $2, updated_at = now()
		WHERE address = $1 AND lamports >= $2
	`, address, amount)
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrInsufficientBalance
	}
	return nil
}
