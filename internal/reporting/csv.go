package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"
)

var csvHeader = []string{"proposal", "name", "address", "direction", "staked", "after_stake", "final", "gain", "outcome"}

// RenderCSV renders the participant table as CSV. Amounts are lamports.
func RenderCSV(r *Report) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, p := range r.Participants {
		row := []string{
			r.Proposal,
			p.Name,
			p.Address,
			p.Direction.String(),
			strconv.FormatUint(p.Staked, 10),
			strconv.FormatUint(p.AfterStake, 10),
			strconv.FormatUint(p.Final, 10),
			strconv.FormatUint(p.Gain, 10),
			string(r.Outcome),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
