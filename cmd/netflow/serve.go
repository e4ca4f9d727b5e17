package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"netflowMonitor/internal/api"
	"netflowMonitor/internal/config"
)

func runServe(cmd *cobra.Command, _ []string) error {
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

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info("serve start",
		zap.String("listen", cfg.Listen),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	server := api.NewServer(cfg.Listen, store, store, logger)
	err = server.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
