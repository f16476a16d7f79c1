package clock

import (
	"context"
	"fmt"

	"solana-prediction/internal/solana"
)

// RPCClock reads the block time of the latest slot over JSON-RPC.
type RPCClock struct {
	rpc solana.RPCClient
}

// NewRPCClock creates a clock backed by rpc.
func NewRPCClock(rpc solana.RPCClient) *RPCClock {
	return &RPCClock{rpc: rpc}
}

// Now returns the block time of the current slot.
func (c *RPCClock) Now(ctx context.Context) (int64, error) {
	slot, err := c.rpc.GetSlot(ctx)
	if err != nil {
		return 0, fmt.Errorf("get slot: %w", err)
	}
	return blockTime(ctx, c.rpc, slot)
}

func blockTime(ctx context.Context, rpc solana.RPCClient, slot int64) (int64, error) {
	bt, err := rpc.GetBlockTime(ctx, slot)
	if err != nil {
		return 0, fmt.Errorf("get block time for slot %d: %w", slot, err)
	}
	if bt == nil {
		return 0, fmt.Errorf("slot %d: %w", slot, solana.ErrBlockTimeUnavailable)
	}
	return *bt, nil
}
