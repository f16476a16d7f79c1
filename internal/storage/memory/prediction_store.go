package memory

import (
	"context"
	"sort"

	"solana-prediction/internal/domain"
	"solana-prediction/internal/storage"
)

type predictionStore struct {
	t *tx
}

// Insert adds a new prediction. Returns ErrDuplicateKey if the address or the
// (proposal, authority) pair exists.
func (s predictionStore) Insert(_ context.Context, p *domain.UserPrediction) error {
	if p == nil || p.Address == "" || p.Proposal == "" || p.Authority == "" {
		return storage.ErrInvalidInput
	}
	if err := s.t.checkWritable(); err != nil {
		return err
	}

	predictions := s.t.store.predictions
	pairs := s.t.store.pairs
	key := pairKey{proposal: p.Proposal, authority: p.Authority}

	if _, exists := predictions[p.Address]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := pairs[key]; exists {
		return storage.ErrDuplicateKey
	}

	predictionCopy := *p
	predictions[p.Address] = &predictionCopy
	pairs[key] = p.Address
	addr := p.Address
	s.t.journal(func() {
		delete(predictions, addr)
		delete(pairs, key)
	})
	return nil
}

// GetByAddress retrieves a prediction. Returns ErrNotFound if not exists.
func (s predictionStore) GetByAddress(_ context.Context, address string) (*domain.UserPrediction, error) {
	p, exists := s.t.store.predictions[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	predictionCopy := *p
	return &predictionCopy, nil
}

// GetByProposal retrieves all predictions of a proposal, ordered by address ASC.
func (s predictionStore) GetByProposal(_ context.Context, proposal string) ([]*domain.UserPrediction, error) {
	var result []*domain.UserPrediction
	for _, p := range s.t.store.predictions {
		if p.Proposal == proposal {
			predictionCopy := *p
			result = append(result, &predictionCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})

	return result, nil
}

// MarkResolved sets resolved=true.
func (s predictionStore) MarkResolved(_ context.Context, address string) error {
	if err := s.t.checkWritable(); err != nil {
		return err
	}

	p, exists := s.t.store.predictions[address]
	if !exists {
		return storage.ErrNotFound
	}
	if p.Resolved {
		return storage.ErrConflict
	}

	p.Resolved = true
	s.t.journal(func() { p.Resolved = false })
	return nil
}

var _ storage.PredictionStore = predictionStore{}
