// Package orchestrator assembles the settlement service from configuration:
// ledger store, event log, clock source and engine.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-prediction/internal/clock"
	"solana-prediction/internal/config"
	"solana-prediction/internal/market"
	"solana-prediction/internal/solana"
	"solana-prediction/internal/storage"
	chstore "solana-prediction/internal/storage/clickhouse"
	"solana-prediction/internal/storage/memory"
	"solana-prediction/internal/storage/migrations"
	pgstore "solana-prediction/internal/storage/postgres"
)

// Orchestrator owns the engine and every resource it depends on.
type Orchestrator struct {
	cfg    config.Config
	log    *zap.Logger
	store  storage.Store
	events storage.EventStore
	clock  clock.Clock
	rpc    solana.RPCClient // nil when the clock is local
	engine *market.Engine

	started time.Time
	closers []func()
}

// Options overrides parts of the configured wiring.
type Options struct {
	// Clock replaces the configured clock source.
	Clock clock.Clock
}

// New builds stores, clock and engine from cfg. Close releases them.
func New(ctx context.Context, cfg config.Config, log *zap.Logger, opts Options) (*Orchestrator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	o := &Orchestrator{cfg: cfg, log: log, started: time.Now()}

	if err := o.build(ctx, opts); err != nil {
		o.Close()
		return nil, err
	}
	return o, nil
}

func (o *Orchestrator) build(ctx context.Context, opts Options) error {
	if err := o.openStore(ctx); err != nil {
		return err
	}
	if err := o.openEvents(ctx); err != nil {
		return err
	}

	if opts.Clock != nil {
		o.clock = opts.Clock
	} else if err := o.openClock(ctx); err != nil {
		return err
	}

	payout, err := market.ParsePayout(o.cfg.Engine.Payout)
	if err != nil {
		return err
	}
	tie, err := market.ParseTieRule(o.cfg.Engine.TieRule)
	if err != nil {
		return err
	}

	o.engine, err = market.NewEngine(o.store, o.clock, market.Options{
		ProgramID:              o.cfg.Engine.ProgramID,
		Payout:                 payout,
		TieRule:                tie,
		RequireExpiryForSettle: o.cfg.Engine.RequireExpiryForSettle,
		ResolveWorkers:         o.cfg.Engine.ResolveWorkers,
		Events:                 o.events,
		Logger:                 o.log,
	})
	if err != nil {
		return err
	}

	o.log.Info("engine ready",
		zap.String("program_id", o.engine.ProgramID()),
		zap.String("vault", o.engine.VaultAddress()),
		zap.String("store", o.cfg.Store.Backend),
		zap.String("clock", o.clockName(opts)),
		zap.String("payout", payout.Name()),
		zap.String("tie_rule", string(tie)),
	)
	return nil
}

func (o *Orchestrator) openStore(ctx context.Context) error {
	switch o.cfg.Store.Backend {
	case config.BackendMemory:
		o.store = memory.NewStore()
		return nil
	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, o.cfg.Store.PostgresDSN)
		if err != nil {
			return err
		}
		o.closers = append(o.closers, pool.Close)
		if o.cfg.Store.Migrate {
			applied, err := migrations.RunPostgresMigrations(ctx, pool)
			if err != nil {
				return err
			}
			o.log.Info("postgres migrations applied", zap.Strings("versions", applied))
		}
		o.store = pgstore.NewStore(pool)
		return nil
	default:
		return fmt.Errorf("unknown store backend %q", o.cfg.Store.Backend)
	}
}

func (o *Orchestrator) openEvents(ctx context.Context) error {
	dsn := o.cfg.Store.ClickhouseDSN
	if dsn == "" {
		o.events = memory.NewEventStore()
		return nil
	}

	var (
		conn *chstore.Conn
		err  error
	)
	if o.cfg.Store.Migrate {
		var applied []string
		conn, applied, err = migrations.RunClickhouseMigrations(ctx, dsn)
		if err == nil {
			o.log.Info("clickhouse migrations applied", zap.Strings("versions", applied))
		}
	} else {
		conn, err = chstore.NewConn(ctx, dsn)
	}
	if err != nil {
		return err
	}
	o.closers = append(o.closers, func() {
		if err := conn.Close(); err != nil {
			o.log.Warn("close clickhouse", zap.Error(err))
		}
	})
	o.events = chstore.NewEventStore(conn)
	return nil
}

func (o *Orchestrator) openClock(ctx context.Context) error {
	sc := o.cfg.Solana
	if sc.Clock == config.ClockSystem {
		o.clock = clock.System{}
		return nil
	}

	rpcOpts := []solana.ClientOption{solana.WithCommitment(sc.Commitment)}
	if sc.Timeout > 0 {
		rpcOpts = append(rpcOpts, solana.WithTimeout(sc.Timeout))
	}
	if sc.MaxRetries > 0 {
		rpcOpts = append(rpcOpts, solana.WithMaxRetries(sc.MaxRetries))
	}
	rpc := solana.NewHTTPClient(sc.RPCURL, rpcOpts...)
	o.rpc = rpc

	switch sc.Clock {
	case config.ClockRPC:
		o.clock = clock.NewRPCClock(rpc)
		return nil
	case config.ClockSlot:
		wsCfg := solana.DefaultWSConfig()
		wsCfg.Logger = o.log
		ws, err := solana.NewWSClient(ctx, sc.WSURL, &wsCfg)
		if err != nil {
			return fmt.Errorf("connect solana ws: %w", err)
		}
		o.closers = append(o.closers, func() {
			if err := ws.Close(); err != nil {
				o.log.Warn("close solana ws", zap.Error(err))
			}
		})

		slotCtx, cancel := context.WithCancel(context.Background())
		o.closers = append(o.closers, cancel)
		slotClock, err := clock.NewSlotClock(slotCtx, ws, rpc, o.log)
		if err != nil {
			return err
		}
		o.clock = slotClock
		return nil
	default:
		return fmt.Errorf("unknown clock %q", sc.Clock)
	}
}

func (o *Orchestrator) clockName(opts Options) string {
	if opts.Clock != nil {
		return "override"
	}
	return o.cfg.Solana.Clock
}

// Engine returns the settlement engine.
func (o *Orchestrator) Engine() *market.Engine { return o.engine }

// Events returns the settlement event log.
func (o *Orchestrator) Events() storage.EventStore { return o.events }

// Close releases resources in reverse order of acquisition.
func (o *Orchestrator) Close() {
	for i := len(o.closers) - 1; i >= 0; i-- {
		o.closers[i]()
	}
	o.closers = nil
}

// Status is a point-in-time view of the service.
type Status struct {
	Status       string   `json:"status"`
	Uptime       string   `json:"uptime"`
	Store        string   `json:"store"`
	Clock        string   `json:"clock"`
	ClusterTime  int64    `json:"cluster_time,omitempty"`
	ProgramID    string   `json:"program_id"`
	Vault        string   `json:"vault"`
	Owner        string   `json:"owner,omitempty"`
	Initialized  bool     `json:"initialized"`
	VaultBalance uint64   `json:"vault_balance"`
	ChainBalance *uint64  `json:"chain_balance,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

// Status reads the vault and clock. Partial failures are reported in
// Status.Errors and degrade Status.Status instead of failing the call.
func (o *Orchestrator) Status(ctx context.Context) *Status {
	st := &Status{
		Status:    "ok",
		Uptime:    time.Since(o.started).Round(time.Second).String(),
		Store:     o.cfg.Store.Backend,
		Clock:     o.cfg.Solana.Clock,
		ProgramID: o.engine.ProgramID(),
		Vault:     o.engine.VaultAddress(),
	}
	fail := func(what string, err error) {
		st.Status = "degraded"
		st.Errors = append(st.Errors, fmt.Sprintf("%s: %v", what, err))
	}

	vault, err := o.engine.GetVault(ctx)
	switch {
	case err == nil:
		st.Initialized = true
		st.Owner = vault.Owner
	case !errors.Is(err, market.ErrVaultNotInitialized):
		fail("vault", err)
	}

	if st.VaultBalance, err = o.engine.VaultBalance(ctx); err != nil {
		fail("vault balance", err)
	}

	if now, err := o.clock.Now(ctx); err != nil {
		fail("clock", err)
	} else {
		st.ClusterTime = now
	}

	if o.rpc != nil {
		if b, err := o.rpc.GetBalance(ctx, st.Vault); err != nil {
			fail("chain balance", err)
		} else {
			st.ChainBalance = &b
		}
	}
	return st
}
