package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"solana-prediction/internal/storage"
)

// Store implements storage.Store on PostgreSQL transactions.
// Rows read inside Update are locked with SELECT ... FOR UPDATE.
type Store struct {
	pool *Pool
}

// NewStore creates a new Store.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

// Update runs fn in a read-write transaction. The transaction commits if fn
// returns nil and rolls back otherwise.
func (s *Store) Update(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(ptx pgx.Tx) error {
		return fn(ctx, &tx{q: ptx, writable: true})
	})
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(ptx pgx.Tx) error {
		return fn(ctx, &tx{q: ptx})
	})
}

// tx binds the record stores to one pgx transaction.
type tx struct {
	q        pgx.Tx
	writable bool
}

func (t *tx) Vaults() storage.VaultStore           { return &VaultStore{t: t} }
func (t *tx) Proposals() storage.ProposalStore     { return &ProposalStore{t: t} }
func (t *tx) Predictions() storage.PredictionStore { return &PredictionStore{t: t} }
func (t *tx) Accounts() storage.AccountStore       { return &AccountStore{t: t} }

func (t *tx) checkWritable() error {
	if !t.writable {
		return storage.ErrReadOnly
	}
	return nil
}

// lockClause returns the row lock suffix for single-row reads.
func (t *tx) lockClause() string {
	if t.writable {
		return " FOR UPDATE"
	}
	return ""
}
