package postgres

import (
	"context"
	"fmt"

	"solana-prediction/internal/domain"
	"solana-prediction/internal/storage"
)

// VaultStore implements storage.VaultStore using PostgreSQL.
type VaultStore struct {
	t *tx
}

// Compile-time interface check.
var _ storage.VaultStore = (*VaultStore)(nil)

// Insert adds a new vault. Returns ErrDuplicateKey if address exists.
func (s *VaultStore) Insert(ctx context.Context, v *domain.Vault) error {
	if v == nil || v.Address == "" || v.Owner == "" {
		return storage.ErrInvalidInput
	}
	if err := s.t.checkWritable(); err != nil {
		return err
	}

	query := `
		INSERT INTO vaults (address, owner, bump, initialized)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.t.q.Exec(ctx, query, v.Address, v.Owner, int16(v.Bump), v.Initialized)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert vault: %w", err)
	}
	return nil
}

// GetByAddress retrieves a vault. Returns ErrNotFound if not exists.
func (s *VaultStore) GetByAddress(ctx context.Context, address string) (*domain.Vault, error) {
	query := `
		SELECT address, owner, bump, initialized
		FROM vaults
		WHERE address = $1` + s.t.lockClause()

	var v domain.Vault
	var bump int16
	err := s.t.q.QueryRow(ctx, query, address).Scan(&v.Address, &v.Owner, &bump, &v.Initialized)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get vault by address: %w", err)
	}

	v.Bump = uint8(bump)
	return &v, nil
}
