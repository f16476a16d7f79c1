package memory

import (
	"context"

	"solana-prediction/internal/domain"
	"solana-prediction/internal/storage"
)

type vaultStore struct {
	t *tx
}

// Insert adds a new vault. Returns ErrDuplicateKey if address exists.
func (s vaultStore) Insert(_ context.Context, v *domain.Vault) error {
	if v == nil || v.Address == "" || v.Owner == "" {
		return storage.ErrInvalidInput
	}
	if err := s.t.checkWritable(); err != nil {
		return err
	}

	vaults := s.t.store.vaults
	if _, exists := vaults[v.Address]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	vaultCopy := *v
	vaults[v.Address] = &vaultCopy
	addr := v.Address
	s.t.journal(func() { delete(vaults, addr) })
	return nil
}

// GetByAddress retrieves a vault. Returns ErrNotFound if not exists.
func (s vaultStore) GetByAddress(_ context.Context, address string) (*domain.Vault, error) {
	v, exists := s.t.store.vaults[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	vaultCopy := *v
	return &vaultCopy, nil
}

var _ storage.VaultStore = vaultStore{}
