package market

import (
	"errors"

	"solana-prediction/internal/ledger"
	"solana-prediction/internal/storage"
)

// Engine errors. Callers compare with errors.Is; messages are surfaced verbatim.
var (
	// ErrUnauthorized is returned when the signer is not the required authority.
	ErrUnauthorized = errors.New("unauthorized: signer does not match the required authority")

	// ErrProposalExpired is returned when a prediction arrives at or after expiry.
	ErrProposalExpired = errors.New("proposal has expired and it's not possible to add predictions")

	// ErrProposalEnded is returned when a prediction targets a settled proposal.
	ErrProposalEnded = errors.New("proposal has ended")

	// ErrProposalAlreadyExecuted is returned by a second settle.
	ErrProposalAlreadyExecuted = errors.New("proposal already executed")

	// ErrProposalNotExecuted is returned when rewards are checked before settle.
	ErrProposalNotExecuted = errors.New("proposal not settled yet")

	// ErrProposalNotExpired is returned by settle before expiry when the expiry gate is on.
	ErrProposalNotExpired = errors.New("proposal not expired yet")

	// ErrAlreadyResolved is returned by a second reward check on the same prediction.
	ErrAlreadyResolved = errors.New("prediction already resolved")

	// ErrAlreadyInitialized is returned by a second vault initialization.
	ErrAlreadyInitialized = errors.New("vault already initialized")

	// ErrVaultNotInitialized is returned when the vault record does not exist.
	ErrVaultNotInitialized = errors.New("vault not initialized")

	// ErrAccountInUse is returned when a record address is already allocated.
	ErrAccountInUse = errors.New("account already in use")

	// ErrProposalNotFound is returned when no proposal lives at the address.
	ErrProposalNotFound = errors.New("proposal not found")

	// ErrPredictionNotFound is returned when the participant has no prediction on the proposal.
	ErrPredictionNotFound = errors.New("prediction not found")

	// ErrInvalidAmount is returned for zero stakes and zero top-ups.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientFunds is returned when a payer cannot cover a transfer.
	ErrInsufficientFunds = ledger.ErrInsufficientFunds
)

// errorKind labels err for metrics.
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrProposalExpired):
		return "proposal_expired"
	case errors.Is(err, ErrProposalEnded):
		return "proposal_ended"
	case errors.Is(err, ErrProposalAlreadyExecuted):
		return "already_executed"
	case errors.Is(err, ErrProposalNotExecuted):
		return "not_executed"
	case errors.Is(err, ErrProposalNotExpired):
		return "not_expired"
	case errors.Is(err, ErrAlreadyResolved):
		return "already_resolved"
	case errors.Is(err, ErrAlreadyInitialized):
		return "already_initialized"
	case errors.Is(err, ErrVaultNotInitialized):
		return "vault_not_initialized"
	case errors.Is(err, ErrAccountInUse):
		return "account_in_use"
	case errors.Is(err, ErrProposalNotFound), errors.Is(err, ErrPredictionNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, storage.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	default:
		return "internal"
	}
}
