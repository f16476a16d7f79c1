package clock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"solana-prediction/internal/solana"
)

// SlotClock tracks the latest slot from a slotSubscribe stream and resolves
// its block time over RPC on demand. Before the first notification, or after
// the stream closes, it falls back to getSlot.
type SlotClock struct {
	rpc  solana.RPCClient
	log  *zap.Logger
	slot atomic.Int64

	cacheMu   sync.Mutex
	cacheSlot int64
	cacheTime int64

	done chan struct{}
}

// NewSlotClock subscribes to slots on ws and starts tracking them until ctx ends.
func NewSlotClock(ctx context.Context, ws solana.WSClient, rpc solana.RPCClient, log *zap.Logger) (*SlotClock, error) {
	if log == nil {
		log = zap.NewNop()
	}

	slots, err := ws.SubscribeSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe slots: %w", err)
	}

	c := &SlotClock{
		rpc:  rpc,
		log:  log.With(zap.String("component", "slot_clock")),
		done: make(chan struct{}),
	}
	go c.track(ctx, slots)
	return c, nil
}

func (c *SlotClock) track(ctx context.Context, slots <-chan solana.SlotInfo) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.slot.Store(0)
			return
		case info, ok := <-slots:
			if !ok {
				c.log.Warn("slot stream closed, falling back to getSlot")
				c.slot.Store(0)
				return
			}
			c.slot.Store(info.Slot)
		}
	}
}

// Slot returns the latest observed slot, 0 if none.
func (c *SlotClock) Slot() int64 {
	return c.slot.Load()
}

// Done is closed when slot tracking stops.
func (c *SlotClock) Done() <-chan struct{} {
	return c.done
}

// Now returns the block time of the latest observed slot.
func (c *SlotClock) Now(ctx context.Context) (int64, error) {
	slot := c.slot.Load()
	if slot == 0 {
		var err error
		if slot, err = c.rpc.GetSlot(ctx); err != nil {
			return 0, fmt.Errorf("get slot: %w", err)
		}
	}

	c.cacheMu.Lock()
	if slot == c.cacheSlot {
		t := c.cacheTime
		c.cacheMu.Unlock()
		return t, nil
	}
	c.cacheMu.Unlock()

	t, err := blockTime(ctx, c.rpc, slot)
	if err != nil {
		return 0, err
	}

	c.cacheMu.Lock()
	if slot > c.cacheSlot {
		c.cacheSlot, c.cacheTime = slot, t
	}
	c.cacheMu.Unlock()
	return t, nil
}
