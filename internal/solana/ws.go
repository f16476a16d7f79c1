package solana

import "context"

// WSClient defines Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeSlots subscribes to slot notifications.
	// The channel is closed when the client is closed.
	SubscribeSlots(ctx context.Context) (<-chan SlotInfo, error)

	// Close closes the WebSocket connection.
	Close() error
}
