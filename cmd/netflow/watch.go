package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"netflowMonitor/internal/chain"
	"netflowMonitor/internal/config"
	"netflowMonitor/internal/registry"
	"netflowMonitor/internal/storage/postgres"
	"netflowMonitor/internal/watcher"
)

func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, store, runner, err := buildWatcher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer chainClient.Close()
	defer store.Close()

	err = runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// buildWatcher wires config into the chain client, store, and watch runner.
// Configuration failures here are the only process-fatal errors.
func buildWatcher(ctx context.Context, cfg config.Config, logger *zap.Logger) (*chain.Client, *postgres.Store, *watcher.Runner, error) {
	if cfg.RPCURL == "" {
		return nil, nil, nil, fmt.Errorf("rpc-url is required")
	}
	if !common.IsHexAddress(cfg.TokenAddress) {
		return nil, nil, nil, fmt.Errorf("token-address is invalid: %q", cfg.TokenAddress)
	}

	registries, err := registry.Build(cfg.Exchanges)
	if err != nil {
		return nil, nil, nil, err
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	chainID, err := chainClient.ChainID(ctx)
	if err != nil {
		chainClient.Close()
		return nil, nil, nil, fmt.Errorf("get chain id: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		chainClient.Close()
		return nil, nil, nil, err
	}

	runner, err := watcher.NewRunner(watcher.RunConfig{
		Token:           common.HexToAddress(cfg.TokenAddress),
		SubscribeBuffer: cfg.SubBuffer,
		RetryBackoff:    cfg.RetryBackoff,
		MaxBackoff:      cfg.MaxBackoff,
	}, chainClient, registries, store, logger)
	if err != nil {
		chainClient.Close()
		store.Close()
		return nil, nil, nil, err
	}

	monitored := 0
	for _, reg := range registries {
		monitored += reg.Size()
	}
	logger.Info("watch start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
		zap.String("token", cfg.TokenAddress),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("exchanges", len(registries)),
		zap.Int("monitored_addresses", monitored),
	)

	return chainClient, store, runner, nil
}

func openStore(ctx context.Context, cfg config.Config) (*postgres.Store, error) {
	if cfg.PGDSN == "" {
		return nil, fmt.Errorf("pg-dsn is required")
	}
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
