package address

import "fmt"

// DefaultProgramID is the on-chain id of the prediction program.
const DefaultProgramID = "8JhNshxTTss89Aii47jrfdaW6Tje1D6WdEiYRaz24fdQ"

// Seeds used by the prediction program.
const (
	VaultSeed      = "vault"
	PredictionSeed = "prediction"
)

// VaultAddress derives the singleton vault address: seeds ["vault"].
func VaultAddress(programID string) (string, uint8, error) {
	program, err := Parse(programID)
	if err != nil {
		return "", 0, fmt.Errorf("program id: %w", err)
	}
	k, bump, err := FindProgramAddress([][]byte{[]byte(VaultSeed)}, program)
	if err != nil {
		return "", 0, fmt.Errorf("derive vault address: %w", err)
	}
	return k.String(), bump, nil
}

// PredictionAddress derives the record address for one participant on one
// proposal: seeds ["prediction", proposal, participant].
func PredictionAddress(programID, proposal, participant string) (string, uint8, error) {
	program, err := Parse(programID)
	if err != nil {
		return "", 0, fmt.Errorf("program id: %w", err)
	}
	proposalKey, err := Parse(proposal)
	if err != nil {
		return "", 0, fmt.Errorf("proposal: %w", err)
	}
	participantKey, err := Parse(participant)
	if err != nil {
		return "", 0, fmt.Errorf("participant: %w", err)
	}

	seeds := [][]byte{
		[]byte(PredictionSeed),
		proposalKey[:],
		participantKey[:],
	}
	k, bump, err := FindProgramAddress(seeds, program)
	if err != nil {
		return "", 0, fmt.Errorf("derive prediction address: %w", err)
	}
	return k.String(), bump, nil
}
