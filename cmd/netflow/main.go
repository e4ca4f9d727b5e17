package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "netflow",
		Short:        "Exchange token netflow monitor",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the transfer watcher and the query API",
		RunE:  runRun,
	}
	addChainFlags(runCmd)
	addStoreFlags(runCmd)
	addHTTPFlags(runCmd)
	addLogFlags(runCmd)
	root.AddCommand(runCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the transfer watcher only",
		RunE:  runWatch,
	}
	addChainFlags(watchCmd)
	addStoreFlags(watchCmd)
	addLogFlags(watchCmd)
	root.AddCommand(watchCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the netflow query API only",
		RunE:  runServe,
	}
	addStoreFlags(serveCmd)
	addHTTPFlags(serveCmd)
	addLogFlags(serveCmd)
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc-url", "", "chain RPC URL (websocket endpoint)")
	cmd.Flags().String("token-address", "", "monitored token contract address")
	cmd.Flags().Int("sub-buffer", 256, "subscription channel buffer")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial reconnect backoff")
	cmd.Flags().Duration("retry-max-backoff", 30*time.Second, "reconnect backoff cap")
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
}

func addHTTPFlags(cmd *cobra.Command) {
	cmd.Flags().String("listen", ":3030", "HTTP listen address")
}

func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
