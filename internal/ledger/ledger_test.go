package ledger

import (
	"context"
	"errors"
	"testing"

	"solana-prediction/internal/storage"
	"solana-prediction/internal/storage/memory"
)

func balances(t *testing.T, store storage.Store, addrs ...string) []uint64 {
	t.Helper()
	out := make([]uint64, len(addrs))
	err := store.View(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		for i, a := range addrs {
			b, err := tx.Accounts().Balance(ctx, a)
			if err != nil {
				return err
			}
			out[i] = b
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read balances: %v", err)
	}
	return out
}

func TestTransfer(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	err := store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := Airdrop(ctx, tx.Accounts(), "alice", 100); err != nil {
			return err
		}
		return Transfer(ctx, tx.Accounts(), "alice", "vault", 40)
	})
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	got := balances(t, store, "alice", "vault")
	if got[0] != 60 || got[1] != 40 {
		t.Errorf("unexpected balances: alice=%d vault=%d", got[0], got[1])
	}
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	_ = store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		return Airdrop(ctx, tx.Accounts(), "alice", 10)
	})

	err := store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		return Transfer(ctx, tx.Accounts(), "alice", "vault", 11)
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !errors.Is(err, storage.ErrInsufficientBalance) {
		t.Errorf("ErrInsufficientFunds should wrap storage.ErrInsufficientBalance")
	}

	got := balances(t, store, "alice", "vault")
	if got[0] != 10 || got[1] != 0 {
		t.Errorf("balances changed on failed transfer: alice=%d vault=%d", got[0], got[1])
	}
}

func TestTransfer_ZeroAndInvalid(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	err := store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		return Transfer(ctx, tx.Accounts(), "nobody", "vault", 0)
	})
	if err != nil {
		t.Errorf("zero transfer should succeed, got %v", err)
	}

	err = store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		return Transfer(ctx, tx.Accounts(), "", "vault", 1)
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTransfer_Self(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	_ = store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		return Airdrop(ctx, tx.Accounts(), "alice", 5)
	})

	err := store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		return Transfer(ctx, tx.Accounts(), "alice", "alice", 5)
	})
	if err != nil {
		t.Fatalf("self transfer failed: %v", err)
	}
	if got := balances(t, store, "alice"); got[0] != 5 {
		t.Errorf("expected 5, got %d", got[0])
	}
}

func TestTransfer_ReverseOrderInsufficientRollsBack(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	_ = store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		return Airdrop(ctx, tx.Accounts(), "zed", 3)
	})

	// "alice" < "zed": the credit leg runs first and must be undone.
	err := store.Update(ctx, func(ctx context.Context, tx storage.Tx) error {
		return Transfer(ctx, tx.Accounts(), "zed", "alice", 4)
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	got := balances(t, store, "zed", "alice")
	if got[0] != 3 || got[1] != 0 {
		t.Errorf("balances changed on failed transfer: zed=%d alice=%d", got[0], got[1])
	}
}
