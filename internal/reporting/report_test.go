package reporting

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"solana-prediction/internal/clock"
	"solana-prediction/internal/domain"
	"solana-prediction/internal/market"
	"solana-prediction/internal/simulation"
	"solana-prediction/internal/storage/memory"
	"solana-prediction/internal/verification"
)

func runReference(t *testing.T) (simulation.Scenario, *simulation.Result, *verification.VerificationResult) {
	t.Helper()
	ctx := context.Background()
	events := memory.NewEventStore()
	clk := clock.NewManual(1_700_000_000)
	eng, err := market.NewEngine(memory.NewStore(), clk, market.Options{Events: events})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	sc := simulation.ReferenceScenario(5616)
	res, err := simulation.NewRunner(eng, clk).Run(ctx, sc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec, err := verification.NewVerifier(eng, events).VerifyProposal(ctx, res.Proposal)
	if err != nil {
		t.Fatalf("VerifyProposal: %v", err)
	}
	return sc, res, rec
}

func TestBuild(t *testing.T) {
	sc, res, rec := runReference(t)
	r := Build(sc, res, rec, time.Unix(0, 0))

	if r.Price != 2616 || r.FinalPrice != 5616 || r.Outcome != domain.OutcomeHigher {
		t.Errorf("unexpected settlement fields: %+v", r)
	}
	if len(r.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(r.Participants))
	}
	if r.Participants[0].Gain != domain.SOL(2) || r.Participants[1].Gain != 0 {
		t.Errorf("unexpected gains: %d, %d", r.Participants[0].Gain, r.Participants[1].Gain)
	}
	if r.Paid != domain.SOL(2) || r.Winners != 1 {
		t.Errorf("unexpected summary: paid=%d winners=%d", r.Paid, r.Winners)
	}
}

func TestRenderMarkdown(t *testing.T) {
	sc, res, rec := runReference(t)
	md := RenderMarkdown(Build(sc, res, rec, time.Unix(0, 0)))

	for _, want := range []string{
		"# Round Report: reference",
		"Generated: 1970-01-01T00:00:00Z",
		"| Outcome | HIGHER |",
		"| Paid (SOL) | 2 |",
		"+2 |",
		"**Match.** 2 predictions, 2 SOL staked, 2 SOL paid.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	r := Build(sc, res, nil, time.Unix(0, 0))
	if !strings.Contains(RenderMarkdown(r), "Not checked.") {
		t.Error("expected reconciliation to be reported as not checked")
	}
}

func TestRenderMarkdown_Divergent(t *testing.T) {
	r := &Report{
		Scenario: "broken",
		Reconciliation: &verification.VerificationResult{
			Divergences: []verification.FieldDivergence{{Field: "settle", Expected: 1, Actual: 0}},
		},
	}
	md := RenderMarkdown(r)
	if !strings.Contains(md, "**Divergent.**") || !strings.Contains(md, "| settle | 1 | 0 |") {
		t.Errorf("divergence not rendered:\n%s", md)
	}
	if !strings.Contains(md, "No participants.") {
		t.Error("expected empty participant section")
	}
}

func TestRenderCSV(t *testing.T) {
	sc, res, rec := runReference(t)
	r := Build(sc, res, rec, time.Unix(0, 0))
	out, err := RenderCSV(r)
	if err != nil {
		t.Fatalf("RenderCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")

	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "proposal,name,address,direction,staked,after_stake,final,gain,outcome" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	wantA := ",A," + r.Participants[0].Address + ",higher,1000000000,1000000000,3000000000,2000000000,HIGHER"
	if !strings.HasSuffix(lines[1], wantA) {
		t.Errorf("unexpected row: %s", lines[1])
	}
}

func TestRenderCSV_QuotesFields(t *testing.T) {
	r := &Report{
		Proposal: "Prop1",
		Outcome:  domain.OutcomeLower,
		Participants: []ParticipantRow{
			{Name: `Smith, "Jr"`, Address: "Addr1", Direction: domain.Lower, Staked: 5, Final: 10, Gain: 5},
		},
	}

	out, err := RenderCSV(r)
	if err != nil {
		t.Fatalf("RenderCSV: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse rendered csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	if len(records[1]) != len(records[0]) {
		t.Fatalf("row has %d fields, header %d", len(records[1]), len(records[0]))
	}
	if records[1][1] != `Smith, "Jr"` {
		t.Errorf("name not preserved: %q", records[1][1])
	}
	if records[1][8] != string(domain.OutcomeLower) {
		t.Errorf("unexpected outcome: %q", records[1][8])
	}
}

func TestSOL(t *testing.T) {
	tests := map[uint64]string{
		0:             "0",
		1:             "0.000000001",
		domain.SOL(2): "2",
		1_500_000_000: "1.5",
	}
	for lamports, want := range tests {
		if got := SOL(lamports); got != want {
			t.Errorf("SOL(%d) = %s, want %s", lamports, got, want)
		}
	}
}
