package storage

import (
	"context"

	"solana-prediction/internal/domain"
)

// Store runs units of work against the ledger state.
// Every mutation and fund movement inside one Update call commits together or not at all.
type Store interface {
	// Update runs fn in a read-write transaction. A non-nil error from fn rolls back
	// every change made through tx.
	Update(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx groups the record stores visible inside one transaction.
type Tx interface {
	Vaults() VaultStore
	Proposals() ProposalStore
	Predictions() PredictionStore
	Accounts() AccountStore
}

// VaultStore provides access to vaults storage.
type VaultStore interface {
	// Insert adds a new vault. Returns ErrDuplicateKey if address exists.
	Insert(ctx context.Context, v *domain.Vault) error

	// GetByAddress retrieves a vault. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.Vault, error)
}

// ProposalStore provides access to proposals storage.
type ProposalStore interface {
	// Insert adds a new proposal. Returns ErrDuplicateKey if address exists.
	Insert(ctx context.Context, p *domain.Proposal) error

	// GetByAddress retrieves a proposal. Returns ErrNotFound if not exists.
	// Inside Update the row stays locked until the transaction ends.
	GetByAddress(ctx context.Context, address string) (*domain.Proposal, error)

	// GetByAuthority retrieves all proposals created by authority, ordered by expiry ASC.
	GetByAuthority(ctx context.Context, authority string) ([]*domain.Proposal, error)

	// MarkExecuted sets final_price and executed=true.
	// Returns ErrConflict if already executed, ErrNotFound if not exists.
	MarkExecuted(ctx context.Context, address string, finalPrice uint64) error
}

// PredictionStore provides access to user_predictions storage.
type PredictionStore interface {
	// Insert adds a new prediction. Returns ErrDuplicateKey if the address or
	// the (proposal, authority) pair exists.
	Insert(ctx context.Context, p *domain.UserPrediction) error

	// GetByAddress retrieves a prediction. Returns ErrNotFound if not exists.
	// Inside Update the row stays locked until the transaction ends.
	GetByAddress(ctx context.Context, address string) (*domain.UserPrediction, error)

	// GetByProposal retrieves all predictions of a proposal, ordered by address ASC.
	GetByProposal(ctx context.Context, proposal string) ([]*domain.UserPrediction, error)

	// MarkResolved sets resolved=true.
	// Returns ErrConflict if already resolved, ErrNotFound if not exists.
	MarkResolved(ctx context.Context, address string) error
}

// AccountStore provides access to native ledger balances.
type AccountStore interface {
	// Balance returns the lamports held by address. Unknown accounts hold 0.
	Balance(ctx context.Context, address string) (uint64, error)

	// Credit adds lamports to address, creating the account if needed.
	Credit(ctx context.Context, address string, lamports uint64) error

	// Debit removes lamports from address.
	// Returns ErrInsufficientBalance if the balance is lower than lamports.
	Debit(ctx context.Context, address string, lamports uint64) error
}

// EventStore provides access to the append-only settlement event log.
type EventStore interface {
	// InsertBulk adds events. Fails entire batch on any duplicate event_id.
	InsertBulk(ctx context.Context, events []*domain.Event) error

	// GetByProposal retrieves events of a proposal, ordered by timestamp ASC.
	GetByProposal(ctx context.Context, proposal string) ([]*domain.Event, error)

	// GetByAccount retrieves events that touched account, ordered by timestamp ASC.
	GetByAccount(ctx context.Context, account string) ([]*domain.Event, error)
}
