package memory

import (
	"context"
	"sync"

	"solana-prediction/internal/domain"
	"solana-prediction/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
// A single lock serializes writers; each Update keeps an undo journal
// that is replayed in reverse when fn fails or panics.
type Store struct {
	mu sync.RWMutex

	vaults      map[string]*domain.Vault          // keyed by address
	proposals   map[string]*domain.Proposal       // keyed by address
	predictions map[string]*domain.UserPrediction // keyed by address
	pairs       map[pairKey]string                // (proposal, authority) -> prediction address
	accounts    map[string]uint64                 // lamports keyed by address
}

type pairKey struct {
	proposal  string
	authority string
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		vaults:      make(map[string]*domain.Vault),
		proposals:   make(map[string]*domain.Proposal),
		predictions: make(map[string]*domain.UserPrediction),
		pairs:       make(map[pairKey]string),
		accounts:    make(map[string]uint64),
	}
}

// Update runs fn under the write lock and rolls back on error.
func (s *Store) Update(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{store: s, writable: true}
	defer func() {
		if r := recover(); r != nil {
			t.rollback()
			panic(r)
		}
		if err != nil {
			t.rollback()
		}
	}()

	return fn(ctx, t)
}

// View runs fn under the read lock.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(ctx, &tx{store: s})
}

// tx is a view of the store bound to one Update or View call.
type tx struct {
	store    *Store
	writable bool
	undo     []func()
}

func (t *tx) Vaults() storage.VaultStore           { return vaultStore{t} }
func (t *tx) Proposals() storage.ProposalStore     { return proposalStore{t} }
func (t *tx) Predictions() storage.PredictionStore { return predictionStore{t} }
func (t *tx) Accounts() storage.AccountStore       { return accountStore{t} }

// journal records how to revert a mutation.
func (t *tx) journal(revert func()) {
	t.undo = append(t.undo, revert)
}

func (t *tx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *tx) checkWritable() error {
	if !t.writable {
		return storage.ErrReadOnly
	}
	return nil
}

// Verify interface compliance at compile time.
var _ storage.Store = (*Store)(nil)
