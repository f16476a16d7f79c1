// Package market implements the prediction market settlement engine:
// vault funding, proposal lifecycle, stake recording and per-participant rewards.
package market

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"solana-prediction/internal/address"
	"solana-prediction/internal/clock"
	"solana-prediction/internal/domain"
	"solana-prediction/internal/idhash"
	"solana-prediction/internal/observability"
	"solana-prediction/internal/storage"
)

// Operation names used in logs and metrics.
const (
	opInitializeVault = "initialize_vault"
	opTopUpVault      = "top_up_vault"
	opCreateProposal  = "create_proposal"
	opMakePrediction  = "make_prediction"
	opSettle          = "settle"
	opCheckAndReward  = "check_and_reward"
	opResolveAll      = "resolve_all"
	opAirdrop         = "airdrop"
)

// DefaultResolveWorkers bounds ResolveAll concurrency when Options leaves it unset.
const DefaultResolveWorkers = 4

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	// ProgramID seeds every derived address. Defaults to address.DefaultProgramID.
	ProgramID string

	// Payout computes winner payouts. Defaults to DoubleStake.
	Payout PayoutPolicy

	// TieRule applies when finalPrice == price. Defaults to TieLower.
	TieRule TieRule

	// RequireExpiryForSettle rejects Settle before the proposal expiry.
	RequireExpiryForSettle bool

	// ResolveWorkers bounds ResolveAll concurrency.
	ResolveWorkers int

	// Events receives settlement events after each commit. Optional.
	Events storage.EventStore

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Engine runs settlement operations against a Store.
// Every public operation is one storage transaction; it is safe for concurrent use.
type Engine struct {
	store  storage.Store
	clock  clock.Clock
	events storage.EventStore
	log    *zap.Logger

	programID     string
	vaultAddr     string
	vaultBump     uint8
	payout        PayoutPolicy
	tie           TieRule
	requireExpiry bool
	workers       int

	wallClock   func() time.Time
	lastEventMs atomic.Int64
}

// NewEngine creates an engine over store reading time from clk.
func NewEngine(store storage.Store, clk clock.Clock, opts Options) (*Engine, error) {
	if store == nil {
		return nil, errors.New("market: nil store")
	}
	if clk == nil {
		return nil, errors.New("market: nil clock")
	}

	programID := opts.ProgramID
	if programID == "" {
		programID = address.DefaultProgramID
	}
	vaultAddr, bump, err := address.VaultAddress(programID)
	if err != nil {
		return nil, fmt.Errorf("market: %w", err)
	}

	payout := opts.Payout
	if payout == nil {
		payout = DoubleStake{}
	}
	tie, err := ParseTieRule(string(opts.TieRule))
	if err != nil {
		return nil, fmt.Errorf("market: %w", err)
	}
	workers := opts.ResolveWorkers
	if workers <= 0 {
		workers = DefaultResolveWorkers
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Engine{
		store:         store,
		clock:         clk,
		events:        opts.Events,
		log:           log.Named("market"),
		programID:     programID,
		vaultAddr:     vaultAddr,
		vaultBump:     bump,
		payout:        payout,
		tie:           tie,
		requireExpiry: opts.RequireExpiryForSettle,
		workers:       workers,
		wallClock:     time.Now,
	}, nil
}

// ProgramID returns the program id used for address derivation.
func (e *Engine) ProgramID() string { return e.programID }

// VaultAddress returns the derived vault address.
func (e *Engine) VaultAddress() string { return e.vaultAddr }

// PredictionAddress returns the derived record address of participant on proposal.
func (e *Engine) PredictionAddress(proposal, participant string) (string, error) {
	addr, _, err := predictionAddress(e.programID, proposal, participant)
	return addr, err
}

func predictionAddress(programID, proposal, participant string) (string, uint8, error) {
	addr, bump, err := address.PredictionAddress(programID, proposal, participant)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", storage.ErrInvalidInput, err)
	}
	return addr, bump, nil
}

func (e *Engine) now(ctx context.Context) (int64, error) {
	now, err := e.clock.Now(ctx)
	observability.RecordClockRead(now, err)
	if err != nil {
		return 0, fmt.Errorf("read clock: %w", err)
	}
	return now, nil
}

func (e *Engine) observe(op string, start time.Time, err error) {
	observability.RecordOperation(op, time.Since(start).Seconds(), errorKind(err), err)
	if err != nil {
		e.log.Warn("operation failed", zap.String("operation", op), zap.Error(err))
	}
}

// record appends events to the event log. Failures are logged and counted;
// the settlement state is already committed.
func (e *Engine) record(ctx context.Context, events ...*domain.Event) {
	if e.events == nil || len(events) == 0 {
		return
	}
	ts := e.eventTime()
	for _, ev := range events {
		ev.TimestampMs = ts
		idhash.StampEvent(ev)
	}

	err := e.events.InsertBulk(context.WithoutCancel(ctx), events)
	observability.RecordEvents(len(events), err)
	if err != nil {
		e.log.Warn("record events", zap.Int("count", len(events)), zap.Error(err))
	}
}

// eventTime returns a strictly increasing millisecond timestamp.
func (e *Engine) eventTime() int64 {
	for {
		last := e.lastEventMs.Load()
		now := e.wallClock().UnixMilli()
		if now <= last {
			now = last + 1
		}
		if e.lastEventMs.CompareAndSwap(last, now) {
			return now
		}
	}
}

func validAddress(field, s string) error {
	if err := address.Validate(s); err != nil {
		return fmt.Errorf("%s: %w: %w", field, storage.ErrInvalidInput, err)
	}
	return nil
}

func getProposal(ctx context.Context, tx storage.Tx, addr string) (*domain.Proposal, error) {
	p, err := tx.Proposals().GetByAddress(ctx, addr)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProposalNotFound, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("get proposal %s: %w", addr, err)
	}
	return p, nil
}

func (e *Engine) getVault(ctx context.Context, tx storage.Tx) (*domain.Vault, error) {
	v, err := tx.Vaults().GetByAddress(ctx, e.vaultAddr)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrVaultNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("get vault: %w", err)
	}
	if !v.Initialized {
		return nil, ErrVaultNotInitialized
	}
	return v, nil
}
