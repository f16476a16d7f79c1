package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Round Report: %s\n\n", r.Scenario))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Settlement
	sb.WriteString("## Settlement\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Proposal | `%s` |\n", r.Proposal))
	sb.WriteString(fmt.Sprintf("| Price | %d |\n", r.Price))
	sb.WriteString(fmt.Sprintf("| Final Price | %d |\n", r.FinalPrice))
	sb.WriteString(fmt.Sprintf("| Outcome | %s |\n", r.Outcome))
	sb.WriteString(fmt.Sprintf("| Winners | %d |\n", r.Winners))
	sb.WriteString(fmt.Sprintf("| Paid (SOL) | %s |\n", SOL(r.Paid)))
	sb.WriteString(fmt.Sprintf("| Vault Before (SOL) | %s |\n", SOL(r.VaultBefore)))
	sb.WriteString(fmt.Sprintf("| Vault After (SOL) | %s |\n", SOL(r.VaultAfter)))
	sb.WriteString("\n")

	// Participants
	sb.WriteString("## Participants\n\n")
	if len(r.Participants) > 0 {
		sb.WriteString("| Name | Address | Call | Staked | After Stake | Final | Gain |\n")
		sb.WriteString("|------|---------|------|--------|-------------|-------|------|\n")
		for _, p := range r.Participants {
			sb.WriteString(fmt.Sprintf("| %s | `%s` | %s | %s | %s | %s | +%s |\n",
				p.Name, p.Address, p.Direction,
				SOL(p.Staked), SOL(p.AfterStake), SOL(p.Final), SOL(p.Gain)))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No participants.\n\n")
	}

	// Reconciliation
	sb.WriteString("## Event Log Reconciliation\n\n")
	switch rec := r.Reconciliation; {
	case rec == nil:
		sb.WriteString("Not checked.\n")
	case rec.Match:
		sb.WriteString(fmt.Sprintf("**Match.** %d predictions, %s SOL staked, %s SOL paid.\n",
			rec.Predictions, SOL(rec.Staked), SOL(rec.Paid)))
	default:
		sb.WriteString("**Divergent.**\n\n")
		sb.WriteString("| Field | Ledger | Events |\n")
		sb.WriteString("|-------|--------|--------|\n")
		for _, d := range rec.Divergences {
			sb.WriteString(fmt.Sprintf("| %s | %v | %v |\n", d.Field, d.Expected, d.Actual))
		}
	}

	return sb.String()
}
