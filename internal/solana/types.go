package solana

import (
	"errors"
	"fmt"
)

// ErrBlockTimeUnavailable is returned when a node has no timestamp for a slot.
var ErrBlockTimeUnavailable = errors.New("block time unavailable")

// Commitment levels accepted by RPC methods.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// SlotInfo represents a slotSubscribe notification.
type SlotInfo struct {
	Slot   int64
	Parent int64
	Root   int64
}

// RPCError is a JSON-RPC 2.0 error returned by the node. It is never retried.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}
