package verification

import (
	"context"
	"testing"

	"solana-prediction/internal/address"
	"solana-prediction/internal/clock"
	"solana-prediction/internal/domain"
	"solana-prediction/internal/idhash"
	"solana-prediction/internal/market"
	"solana-prediction/internal/simulation"
	"solana-prediction/internal/storage/memory"
)

type setup struct {
	engine *market.Engine
	events *memory.EventStore
	clock  *clock.Manual
}

func newSetup(t *testing.T) setup {
	t.Helper()
	events := memory.NewEventStore()
	clk := clock.NewManual(1_700_000_000)
	eng, err := market.NewEngine(memory.NewStore(), clk, market.Options{Events: events})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return setup{engine: eng, events: events, clock: clk}
}

func TestVerifyProposal_Match(t *testing.T) {
	s := newSetup(t)
	ctx := context.Background()

	res, err := simulation.NewRunner(s.engine, s.clock).Run(ctx, simulation.ReferenceScenario(5616))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := NewVerifier(s.engine, s.events).VerifyProposal(ctx, res.Proposal)
	if err != nil {
		t.Fatalf("VerifyProposal: %v", err)
	}
	if !got.Match {
		t.Fatalf("expected match, got divergences: %+v", got.Divergences)
	}
	if got.Predictions != 2 || got.Staked != domain.SOL(2) || got.Paid != domain.SOL(2) {
		t.Errorf("unexpected totals: %+v", got)
	}
}

func TestVerifyProposal_MissingEvents(t *testing.T) {
	s := newSetup(t)
	ctx := context.Background()

	// The engine writes nothing to this store.
	empty := memory.NewEventStore()

	authority := address.NewRandom()
	p, err := s.engine.CreateProposal(ctx, market.CreateProposalRequest{Price: 10, Expiry: 1_700_000_100, Authority: authority})
	if err != nil {
		t.Fatalf("CreateProposal: %v", err)
	}

	got, err := NewVerifier(s.engine, empty).VerifyProposal(ctx, p.Address)
	if err != nil {
		t.Fatalf("VerifyProposal: %v", err)
	}
	if got.Match {
		t.Fatal("expected divergence for missing creation event")
	}
	if got.Divergences[0].Field != "created" {
		t.Errorf("unexpected divergence: %+v", got.Divergences[0])
	}
}

func TestVerifyProposal_ForeignEvent(t *testing.T) {
	s := newSetup(t)
	ctx := context.Background()

	res, err := simulation.NewRunner(s.engine, s.clock).Run(ctx, simulation.ReferenceScenario(1616))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	stranger := address.NewRandom()
	forged := &domain.Event{
		Kind:        domain.EventPayout,
		Proposal:    res.Proposal,
		Account:     stranger,
		Lamports:    domain.SOL(5),
		TimestampMs: 1,
	}
	idhash.StampEvent(forged)
	if err := s.events.InsertBulk(ctx, []*domain.Event{forged}); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	got, err := NewVerifier(s.engine, s.events).VerifyProposal(ctx, res.Proposal)
	if err != nil {
		t.Fatalf("VerifyProposal: %v", err)
	}
	if got.Match || len(got.Divergences) != 1 {
		t.Fatalf("expected one divergence, got %+v", got.Divergences)
	}
	if got.Divergences[0].Field != "unknown_participant["+stranger+"]" {
		t.Errorf("unexpected divergence field %s", got.Divergences[0].Field)
	}
}

func TestVerifyAll(t *testing.T) {
	s := newSetup(t)
	ctx := context.Background()

	authority := address.NewRandom()
	for _, price := range []uint64{1, 2, 3} {
		if _, err := s.engine.CreateProposal(ctx, market.CreateProposalRequest{Price: price, Expiry: 1_700_000_100, Authority: authority}); err != nil {
			t.Fatalf("CreateProposal: %v", err)
		}
	}

	report, err := NewVerifier(s.engine, s.events).VerifyAll(ctx, authority)
	if err != nil {
		t.Fatalf("VerifyAll: %v", err)
	}
	if report.TotalProposals != 3 || report.MatchedProposals != 3 || report.DivergentProposals != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
}
