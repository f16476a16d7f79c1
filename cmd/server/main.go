// Package main runs the settlement service: it assembles the engine from
// configuration and serves health, status and Prometheus metrics over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"solana-prediction/internal/config"
	"solana-prediction/internal/logger"
	"solana-prediction/internal/observability"
	"solana-prediction/internal/orchestrator"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("PREDICTION_CONFIG"), "Path to YAML config file")
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
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch, err := orchestrator.New(ctx, cfg, log, orchestrator.Options{})
	if err != nil {
		zap.L().Fatal("build engine", zap.Error(err))
	}
	defer orch.Close()

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           routes(orch),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go trackUptime(ctx)

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		zap.L().Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			zap.L().Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("http shutdown", zap.Error(err))
	}
	zap.L().Info("shutdown complete")
}

func routes(orch *orchestrator.Orchestrator) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		st := orch.Status(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if st.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(st); err != nil {
			zap.L().Warn("encode status", zap.Error(err))
		}
	})
	return mux
}

func trackUptime(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			observability.DefaultMetrics.UptimeSeconds.Inc()
		}
	}
}
