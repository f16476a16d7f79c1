package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-prediction/internal/address"
	"solana-prediction/internal/clock"
	"solana-prediction/internal/domain"
	"solana-prediction/internal/market"
)

// Row locks taken by Update must serialize concurrent settlement calls on
// the same proposal and prediction.
func TestEngine_ConcurrentRewardPaysOnce(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	const start int64 = 1_700_000_000
	engine, err := market.NewEngine(NewStore(pool), clock.NewManual(start), market.Options{})
	require.NoError(t, err)

	owner := address.NewRandom()
	authority := address.NewRandom()
	_, err = engine.InitializeVault(ctx, owner)
	require.NoError(t, err)
	require.NoError(t, engine.Airdrop(ctx, owner, domain.SOL(5)))
	_, err = engine.TopUpVault(ctx, owner, domain.SOL(5))
	require.NoError(t, err)

	p, err := engine.CreateProposal(ctx, market.CreateProposalRequest{
		Coin:      "So11111111111111111111111111111111111111112",
		Price:     2616,
		Expiry:    start + 60,
		Authority: authority,
	})
	require.NoError(t, err)

	participant := address.NewRandom()
	require.NoError(t, engine.Airdrop(ctx, participant, domain.SOL(2)))
	_, err = engine.MakePrediction(ctx, market.PredictionRequest{
		Proposal:    p.Address,
		Participant: participant,
		Direction:   domain.Higher,
		Lamports:    domain.SOL(1),
	})
	require.NoError(t, err)

	const callers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		settled  int
		executed int
	)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Settle(ctx, market.SettleRequest{
				Proposal:   p.Address,
				FinalPrice: 5616 + uint64(i),
				Authority:  authority,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				settled++
			case errors.Is(err, market.ErrProposalAlreadyExecuted):
				executed++
			default:
				t.Errorf("settle: %v", err)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, settled)
	require.Equal(t, callers-1, executed)

	var paid, resolved int
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.CheckAndReward(ctx, market.RewardRequest{
				Proposal:    p.Address,
				Participant: participant,
				Authority:   authority,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				paid++
			case errors.Is(err, market.ErrAlreadyResolved):
				resolved++
			default:
				t.Errorf("check and reward: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, paid)
	assert.Equal(t, callers-1, resolved)

	balance, err := engine.Balance(ctx, participant)
	require.NoError(t, err)
	assert.Equal(t, domain.SOL(3), balance)

	vault, err := engine.VaultBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SOL(4), vault)

	pred, err := engine.GetPrediction(ctx, p.Address, participant)
	require.NoError(t, err)
	assert.True(t, pred.Resolved)
}
