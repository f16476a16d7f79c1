package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"solana-prediction/internal/domain"
)

// ComputeEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(kind|proposal|account|lamports|price|timestamp_ms)
// Returns hex-encoded hash (64 characters).
func ComputeEventID(
	kind domain.EventKind,
	proposal string,
	account string,
	lamports uint64,
	price uint64,
	timestampMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d|%d",
		string(kind),
		proposal,
		account,
		lamports,
		price,
		timestampMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// StampEvent fills e.EventID from its other fields.
func StampEvent(e *domain.Event) {
	e.EventID = ComputeEventID(e.Kind, e.Proposal, e.Account, e.Lamports, e.Price, e.TimestampMs)
}
