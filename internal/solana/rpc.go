package solana

import "context"

// RPCClient defines the subset of Solana RPC HTTP used by the settlement engine.
type RPCClient interface {
	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (int64, error)

	// GetBlockTime retrieves the estimated production time of a block in unix seconds.
	// Returns nil if the block time is not available.
	GetBlockTime(ctx context.Context, slot int64) (*int64, error)

	// GetBalance retrieves the lamports held by an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)
}
