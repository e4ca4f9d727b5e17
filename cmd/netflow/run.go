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

// runRun starts the watcher and the query API in one process, the way the
// monitor is normally deployed. The watcher is the sole writer; the API only
// reads, so the two tasks share nothing but the store.
func runRun(cmd *cobra.Command, _ []string) error {
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

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	chainClient, store, runner, err := buildWatcher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer chainClient.Close()
	defer store.Close()

	logger.Info("serve start", zap.String("listen", cfg.Listen))
	server := api.NewServer(cfg.Listen, store, store, logger)

	errc := make(chan error, 2)
	go func() { errc <- runner.Run(ctx) }()
	go func() { errc <- server.Run(ctx) }()

	// First failure stops the other task; shutdown via signal surfaces as
	// context.Canceled from both.
	err = <-errc
	cancel()
	if second := <-errc; err == nil || errors.Is(err, context.Canceled) {
		err = second
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
