package memory

import (
	"context"
	"math"

	"solana-prediction/internal/storage"
)

type accountStore struct {
	t *tx
}

// Balance returns the lamports held by address. Unknown accounts hold 0.
func (s accountStore) Balance(_ context.Context, address string) (uint64, error) {
	if address == "" {
		return 0, storage.ErrInvalidInput
	}
	return s.t.store.accounts[address], nil
}

// Credit adds lamports to address.
func (s accountStore) Credit(_ context.Context, address string, lamports uint64) error {
	if address == "" {
		return storage.ErrInvalidInput
	}
	if err := s.t.checkWritable(); err != nil {
		return err
	}

	accounts := s.t.store.accounts
	prev, existed := accounts[address]
	if lamports > math.MaxUint64-prev {
		return storage.ErrInvalidInput
	}

	accounts[address] = prev + lamports
	s.t.journal(func() { restoreBalance(accounts, address, prev, existed) })
	return nil
}

// Debit removes lamports from address.
func (s accountStore) Debit(_ context.Context, address string, lamports uint64) error {
	if address == "" {
		return storage.ErrInvalidInput
	}
	if err := s.t.checkWritable(); err != nil {
		return err
	}

	accounts := s.t.store.accounts
	prev, existed := accounts[address]
	if prev < lamports {
		return storage.ErrInsufficientBalance
	}

	accounts[address] = prev - lamports
	s.t.journal(func() { restoreBalance(accounts, address, prev, existed) })
	return nil
}

func restoreBalance(accounts map[string]uint64, address string, prev uint64, existed bool) {
	if !existed {
		delete(accounts, address)
		return
	}
	accounts[address] = prev
}

var _ storage.AccountStore = accountStore{}
