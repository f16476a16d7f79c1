// Package main applies the embedded Postgres and ClickHouse migrations.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"solana-prediction/internal/config"
	"solana-prediction/internal/logger"
	"solana-prediction/internal/storage/migrations"
	"solana-prediction/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", os.Getenv("PREDICTION_CONFIG"), "Path to YAML config file")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall migration timeout")
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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if cfg.Store.PostgresDSN == "" && cfg.Store.ClickhouseDSN == "" {
		log.Fatal("nothing to migrate: set store.postgres_dsn and/or store.clickhouse_dsn")
	}

	if dsn := cfg.Store.PostgresDSN; dsn != "" {
		pool, err := postgres.NewPool(ctx, dsn)
		if err != nil {
			log.Fatal("connect postgres", zap.Error(err))
		}
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		pool.Close()
		if err != nil {
			log.Fatal("postgres migrations", zap.Error(err))
		}
		log.Info("postgres migrations applied", zap.Strings("versions", applied))
	}

	if dsn := cfg.Store.ClickhouseDSN; dsn != "" {
		conn, applied, err := migrations.RunClickhouseMigrations(ctx, dsn)
		if err != nil {
			log.Fatal("clickhouse migrations", zap.Error(err))
		}
		if err := conn.Close(); err != nil {
			log.Warn("close clickhouse", zap.Error(err))
		}
		log.Info("clickhouse migrations applied", zap.Strings("versions", applied))
	}
}
