package stub

import (
	"context"
	"errors"
	"sync"

	"solana-prediction/internal/solana"
)

// ErrNotFound is returned when a block time is not registered.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu         sync.Mutex
	Slot       int64
	BlockTimes map[int64]int64
	Balances   map[string]uint64
	Err        error // returned by every call when set
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		BlockTimes: make(map[int64]int64),
		Balances:   make(map[string]uint64),
	}
}

var _ solana.RPCClient = (*RPCClient)(nil)

// GetSlot returns the configured slot.
func (c *RPCClient) GetSlot(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return 0, c.Err
	}
	return c.Slot, nil
}

// GetBlockTime returns the registered block time for slot.
func (c *RPCClient) GetBlockTime(_ context.Context, slot int64) (*int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return nil, c.Err
	}
	bt, ok := c.BlockTimes[slot]
	if !ok {
		return nil, ErrNotFound
	}
	return &bt, nil
}

// GetBalance returns the registered balance, 0 for unknown accounts.
func (c *RPCClient) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return 0, c.Err
	}
	return c.Balances[pubkey], nil
}

// SetSlot advances the stub chain to slot with the given block time.
func (c *RPCClient) SetSlot(slot, blockTime int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Slot = slot
	c.BlockTimes[slot] = blockTime
}
