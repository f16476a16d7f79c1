package simulation

import (
	"time"

	"solana-prediction/internal/domain"
)

// Stake is one participant of a scenario.
type Stake struct {
	Name      string
	Direction domain.Direction
	Lamports  uint64
	Funding   uint64 // airdropped to the participant before staking
}

// Scenario is a full round: vault funding, stakes, settlement and rewards.
type Scenario struct {
	Name       string
	Coin       string
	Price      uint64
	FinalPrice uint64
	Window     time.Duration // proposal lifetime
	VaultTopUp uint64
	Stakes     []Stake
}

// ReferenceCoin is the mint used by the reference round.
const ReferenceCoin = "So11111111111111111111111111111111111111112"

// ReferenceScenario is the two-party round: A calls higher, B calls lower,
// 1 SOL each against a threshold of 2616.
func ReferenceScenario(finalPrice uint64) Scenario {
	return Scenario{
		Name:       "reference",
		Coin:       ReferenceCoin,
		Price:      2616,
		FinalPrice: finalPrice,
		Window:     time.Minute,
		VaultTopUp: domain.SOL(2),
		Stakes: []Stake{
			{Name: "A", Direction: domain.Higher, Lamports: domain.SOL(1), Funding: domain.SOL(2)},
			{Name: "B", Direction: domain.Lower, Lamports: domain.SOL(1), Funding: domain.SOL(2)},
		},
	}
}
