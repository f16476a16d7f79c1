// Package main runs the reference prediction round end to end against the
// configured backend and prints each participant's balance changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"solana-prediction/internal/clock"
	"solana-prediction/internal/config"
	"solana-prediction/internal/logger"
	"solana-prediction/internal/orchestrator"
	"solana-prediction/internal/reporting"
	"solana-prediction/internal/simulation"
	"solana-prediction/internal/verification"
)

func main() {
	configPath := flag.String("config", os.Getenv("PREDICTION_CONFIG"), "Path to YAML config file")
	price := flag.Uint64("price", 2616, "Threshold price recorded at creation")
	finalPrice := flag.Uint64("final-price", 5616, "Final price used to settle")
	reportDir := flag.String("report-dir", "", "Write round.md and round.csv to this directory")
	flag.Parse()

	boot := zap.Must(zap.NewProduction())
	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Fatal("load config", zap.Error(err))
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		boot.Fatal("build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	// The round settles right after staking, so time is simulated.
	clk := clock.NewManual(time.Now().Unix())
	orch, err := orchestrator.New(ctx, cfg, log, orchestrator.Options{Clock: clk})
	if err != nil {
		log.Fatal("build engine", zap.Error(err))
	}
	defer orch.Close()

	sc := simulation.ReferenceScenario(*finalPrice)
	sc.Price = *price

	res, err := simulation.NewRunner(orch.Engine(), clk).Run(ctx, sc)
	if err != nil {
		log.Fatal("run scenario", zap.Error(err))
	}

	rec, err := verification.NewVerifier(orch.Engine(), orch.Events()).VerifyProposal(ctx, res.Proposal)
	if err != nil {
		log.Fatal("reconcile events", zap.Error(err))
	}
	if !rec.Match {
		log.Warn("event log diverges from ledger", zap.Int("divergences", len(rec.Divergences)))
	}

	fmt.Printf("proposal %s: price %d, final %d, outcome %s\n", res.Proposal, sc.Price, sc.FinalPrice, res.Outcome)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICIPANT\tCALL\tSTAKED\tAFTER STAKE\tFINAL\tGAIN")
	for _, p := range res.Participants {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t+%s\n",
			p.Name, p.Direction,
			reporting.SOL(p.Staked), reporting.SOL(p.AfterStake), reporting.SOL(p.Final), reporting.SOL(p.Gain()))
	}
	_ = w.Flush()
	fmt.Printf("vault: %s -> %s SOL (paid %s SOL to %d winners)\n",
		reporting.SOL(res.VaultBefore), reporting.SOL(res.VaultAfter), reporting.SOL(res.Summary.Paid), res.Summary.Winners)

	if *reportDir == "" {
		return
	}
	report := reporting.Build(sc, res, rec, time.Now())
	if err := writeReport(*reportDir, report); err != nil {
		log.Fatal("write report", zap.Error(err))
	}
	log.Info("report written", zap.String("dir", *reportDir))
}

func writeReport(dir string, r *reporting.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "round.md"), []byte(reporting.RenderMarkdown(r)), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	rows, err := reporting.RenderCSV(r)
	if err != nil {
		return fmt.Errorf("render csv: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "round.csv"), []byte(rows), 0o644); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
