package domain

// EventKind identifies a settlement event.
type EventKind string

// Settlement event kinds.
const (
	EventVaultInitialized EventKind = "VAULT_INITIALIZED"
	EventVaultTopUp       EventKind = "VAULT_TOP_UP"
	EventProposalCreated  EventKind = "PROPOSAL_CREATED"
	EventStake            EventKind = "STAKE"
	EventSettle           EventKind = "SETTLE"
	EventPayout           EventKind = "PAYOUT"
	EventResolve          EventKind = "RESOLVE"
)

// Event is an append-only record of a committed engine operation.
type Event struct {
	EventID     string    // deterministic hash
	Kind        EventKind
	Proposal    string // empty for vault events
	Account     string // acting or receiving account
	Lamports    uint64 // funds moved, 0 when none
	Price       uint64 // threshold or final price where relevant
	TimestampMs int64
}
