// Package verification reconciles committed ledger state against the
// settlement event log. Events are written after commit on a best-effort
// basis, so a divergence points at a lost or foreign event, never at a
// lost settlement.
package verification

import (
	"context"
	"fmt"

	"solana-prediction/internal/domain"
	"solana-prediction/internal/market"
	"solana-prediction/internal/storage"
)

// FieldDivergence represents a mismatch between ledger state and the event log.
type FieldDivergence struct {
	Field    string      // what was compared, e.g. "stake[<participant>]"
	Expected interface{} // ledger value
	Actual   interface{} // value derived from events
}

// VerificationResult contains the result of verifying one proposal.
type VerificationResult struct {
	Proposal    string
	Match       bool
	Divergences []FieldDivergence
	Predictions int    // predictions recorded in the ledger
	Staked      uint64 // total stake in the ledger
	Paid        uint64 // total PAYOUT lamports in the event log
}

// VerificationReport contains results for an authority's proposals.
type VerificationReport struct {
	TotalProposals     int
	MatchedProposals   int
	DivergentProposals int
	Results            []VerificationResult
}

// Verifier reconciles proposals read through the engine with an event store.
type Verifier struct {
	engine *market.Engine
	events storage.EventStore
}

// NewVerifier creates a verifier.
func NewVerifier(engine *market.Engine, events storage.EventStore) *Verifier {
	return &Verifier{engine: engine, events: events}
}

// VerifyProposal compares one proposal's ledger records with its events.
func (v *Verifier) VerifyProposal(ctx context.Context, proposal string) (*VerificationResult, error) {
	p, err := v.engine.GetProposal(ctx, proposal)
	if err != nil {
		return nil, err
	}
	preds, err := v.engine.ListPredictions(ctx, proposal)
	if err != nil {
		return nil, err
	}
	events, err := v.events.GetByProposal(ctx, proposal)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	res := &VerificationResult{Proposal: proposal, Predictions: len(preds)}
	for _, pred := range preds {
		res.Staked += pred.Amount
	}
	res.Divergences = compare(p, preds, index(events))
	for _, ev := range events {
		if ev.Kind == domain.EventPayout {
			res.Paid += ev.Lamports
		}
	}
	res.Match = len(res.Divergences) == 0
	return res, nil
}

// VerifyAll verifies every proposal created by authority.
func (v *Verifier) VerifyAll(ctx context.Context, authority string) (*VerificationReport, error) {
	proposals, err := v.engine.ListProposals(ctx, authority)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{TotalProposals: len(proposals)}
	for _, p := range proposals {
		res, err := v.VerifyProposal(ctx, p.Address)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", p.Address, err)
		}
		if res.Match {
			report.MatchedProposals++
		} else {
			report.DivergentProposals++
		}
		report.Results = append(report.Results, *res)
	}
	return report, nil
}

// eventIndex groups a proposal's events by kind and account.
type eventIndex struct {
	created []*domain.Event
	settle  []*domain.Event
	stake   map[string][]*domain.Event
	payout  map[string][]*domain.Event
	resolve map[string][]*domain.Event
}

func index(events []*domain.Event) eventIndex {
	idx := eventIndex{
		stake:   make(map[string][]*domain.Event),
		payout:  make(map[string][]*domain.Event),
		resolve: make(map[string][]*domain.Event),
	}
	for _, ev := range events {
		switch ev.Kind {
		case domain.EventProposalCreated:
			idx.created = append(idx.created, ev)
		case domain.EventSettle:
			idx.settle = append(idx.settle, ev)
		case domain.EventStake:
			idx.stake[ev.Account] = append(idx.stake[ev.Account], ev)
		case domain.EventPayout:
			idx.payout[ev.Account] = append(idx.payout[ev.Account], ev)
		case domain.EventResolve:
			idx.resolve[ev.Account] = append(idx.resolve[ev.Account], ev)
		}
	}
	return idx
}

// compare returns every divergence between the ledger and the indexed events.
func compare(p *domain.Proposal, preds []*domain.UserPrediction, idx eventIndex) []FieldDivergence {
	var divs []FieldDivergence
	add := func(field string, expected, actual interface{}) {
		divs = append(divs, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}

	if len(idx.created) != 1 {
		add("created", 1, len(idx.created))
	} else if idx.created[0].Price != p.Price {
		add("price", p.Price, idx.created[0].Price)
	}

	switch {
	case p.Executed && len(idx.settle) != 1:
		add("settle", 1, len(idx.settle))
	case p.Executed && idx.settle[0].Price != p.FinalPrice:
		add("final_price", p.FinalPrice, idx.settle[0].Price)
	case !p.Executed && len(idx.settle) != 0:
		add("settle", 0, len(idx.settle))
	}

	known := make(map[string]bool, len(preds))
	for _, pred := range preds {
		who := pred.Authority
		known[who] = true

		if stakes := idx.stake[who]; len(stakes) != 1 {
			add("stake["+who+"]", 1, len(stakes))
		} else if stakes[0].Lamports != pred.Amount {
			add("amount["+who+"]", pred.Amount, stakes[0].Lamports)
		}

		resolves := len(idx.resolve[who])
		switch {
		case pred.Resolved && resolves != 1:
			add("resolve["+who+"]", 1, resolves)
		case !pred.Resolved && resolves != 0:
			add("resolve["+who+"]", 0, resolves)
		}

		payouts := len(idx.payout[who])
		if payouts > 1 || (payouts == 1 && !pred.Resolved) {
			add("payout["+who+"]", "at most one after resolve", payouts)
		}
	}

	for _, kind := range []map[string][]*domain.Event{idx.stake, idx.payout, idx.resolve} {
		for who, evs := range kind {
			if !known[who] {
				add("unknown_participant["+who+"]", 0, len(evs))
			}
		}
	}
	return divs
}
