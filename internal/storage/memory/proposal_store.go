package memory

import (
	"context"
	"sort"

	"solana-prediction/internal/domain"
	"solana-prediction/internal/storage"
)

type proposalStore struct {
	t *tx
}

// Insert adds a new proposal. Returns ErrDuplicateKey if address exists.
func (s proposalStore) Insert(_ context.Context, p *domain.Proposal) error {
	if p == nil || p.Address == "" || p.Authority == "" {
		return storage.ErrInvalidInput
	}
	if err := s.t.checkWritable(); err != nil {
		return err
	}

	proposals := s.t.store.proposals
	if _, exists := proposals[p.Address]; exists {
		return storage.ErrDuplicateKey
	}

	proposalCopy := *p
	proposals[p.Address] = &proposalCopy
	addr := p.Address
	s.t.journal(func() { delete(proposals, addr) })
	return nil
}

// GetByAddress retrieves a proposal. Returns ErrNotFound if not exists.
func (s proposalStore) GetByAddress(_ context.Context, address string) (*domain.Proposal, error) {
	p, exists := s.t.store.proposals[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	proposalCopy := *p
	return &proposalCopy, nil
}

// GetByAuthority retrieves all proposals created by authority, ordered by expiry ASC.
func (s proposalStore) GetByAuthority(_ context.Context, authority string) ([]*domain.Proposal, error) {
	var result []*domain.Proposal
	for _, p := range s.t.store.proposals {
		if p.Authority == authority {
			proposalCopy := *p
			result = append(result, &proposalCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Expiry != result[j].Expiry {
			return result[i].Expiry < result[j].Expiry
		}
		return result[i].Address < result[j].Address
	})

	return result, nil
}

// MarkExecuted sets final_price and executed=true.
func (s proposalStore) MarkExecuted(_ context.Context, address string, finalPrice uint64) error {
	if err := s.t.checkWritable(); err != nil {
		return err
	}

	p, exists := s.t.store.proposals[address]
	if !exists {
		return storage.ErrNotFound
	}
	if p.Executed {
		return storage.ErrConflict
	}

	prevPrice := p.FinalPrice
	p.FinalPrice = finalPrice
	p.Executed = true
	s.t.journal(func() {
		p.FinalPrice = prevPrice
		p.Executed = false
	})
	return nil
}

var _ storage.ProposalStore = proposalStore{}
