package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"netflowMonitor/internal/erc20"
	"netflowMonitor/internal/metrics"
	"netflowMonitor/internal/model"
	"netflowMonitor/internal/netflow"
	"netflowMonitor/internal/registry"
	"netflowMonitor/internal/storage"
)

// LogSource opens a filtered live log subscription.
type LogSource interface {
	SubscribeLogs(ctx context.Context, contract common.Address, topic0 common.Hash, sink chan<- types.Log) (ethereum.Subscription, error)
}

// RunConfig holds runtime settings for the watcher.
type RunConfig struct {
	Token           common.Address
	SubscribeBuffer int
	RetryBackoff    time.Duration
	MaxBackoff      time.Duration
}

// Runner keeps a Transfer log subscription open for the life of the process
// and feeds each delivered log, strictly in order, through
// decode -> classify -> record. It is the sole writer of the ledger and
// snapshot relations.
type Runner struct {
	cfg        RunConfig
	source     LogSource
	registries []*registry.Registry
	store      storage.FlowStore
	logger     *zap.Logger
	topic0     common.Hash
	seen       map[string]struct{}
	now        func() time.Time
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, source LogSource, registries []*registry.Registry, flowStore storage.FlowStore, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	topic0, err := erc20.TransferEventID()
	if err != nil {
		return nil, err
	}
	if cfg.SubscribeBuffer <= 0 {
		cfg.SubscribeBuffer = 256
	}
	return &Runner{
		cfg:        cfg,
		source:     source,
		registries: registries,
		store:      flowStore,
		logger:     logger,
		topic0:     topic0,
		seen:       make(map[string]struct{}),
		now:        time.Now,
	}, nil
}

// Run executes the watch loop until ctx is cancelled. Stream failures are
// retried with exponential backoff and never unwind past this loop; transfers
// emitted while disconnected are lost, since the subscription carries no
// resume cursor.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("log source is nil")
	}
	if r.store == nil {
		return fmt.Errorf("flow store is nil")
	}
	if len(r.registries) == 0 {
		return fmt.Errorf("at least one exchange registry is required")
	}

	backoff := NewBackoff(r.cfg.RetryBackoff, r.cfg.MaxBackoff)
	var disconnectedAt time.Time

	for {
		err := r.stream(ctx, backoff, &disconnectedAt)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := backoff.Next()
		metrics.Reconnects.Inc()
		r.logger.Warn("subscription lost",
			zap.Error(err),
			zap.Duration("retry_in", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *Runner) stream(ctx context.Context, backoff *Backoff, disconnectedAt *time.Time) error {
	sink := make(chan types.Log, r.cfg.SubscribeBuffer)
	sub, err := r.source.SubscribeLogs(ctx, r.cfg.Token, r.topic0, sink)
	if err != nil {
		if disconnectedAt.IsZero() {
			*disconnectedAt = r.now()
		}
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	backoff.Reset()
	// Dedupe is per subscription session; a fresh stream starts a fresh map,
	// which also keeps it from growing without bound in an always-on process.
	r.seen = make(map[string]struct{})
	metrics.SubscriptionUp.Set(1)
	defer metrics.SubscriptionUp.Set(0)

	if disconnectedAt.IsZero() {
		r.logger.Info("subscription open", zap.String("token", r.cfg.Token.Hex()))
	} else {
		// Transfers emitted during the gap were not replayed.
		r.logger.Warn("subscription restored",
			zap.String("token", r.cfg.Token.Hex()),
			zap.Duration("gap", r.now().Sub(*disconnectedAt)),
		)
		*disconnectedAt = time.Time{}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			*disconnectedAt = r.now()
			if err == nil {
				err = fmt.Errorf("subscription closed")
			}
			return err
		case log := <-sink:
			r.handleLog(ctx, log)
		}
	}
}

// handleLog processes one delivered log. Decode and store failures are logged
// and skipped; a single bad log or failed write never stops ingestion.
func (r *Runner) handleLog(ctx context.Context, log types.Log) {
	metrics.LogsReceived.Inc()

	if log.Removed {
		r.logger.Debug("skip removed log", zap.String("tx_hash", log.TxHash.Hex()))
		return
	}
	if r.isDuplicate(log) {
		return
	}

	event, err := erc20.DecodeTransfer(log, r.now())
	if err != nil {
		metrics.DecodeErrors.Inc()
		r.logger.Warn("skip undecodable log",
			zap.Error(err),
			zap.Uint64("block_number", log.BlockNumber),
			zap.String("tx_hash", log.TxHash.Hex()),
		)
		return
	}

	flows := make([]model.ClassifiedFlow, 0, len(r.registries))
	for _, reg := range r.registries {
		flow := netflow.Classify(event, reg)
		if flow.IsZero() {
			continue
		}
		flows = append(flows, flow)
	}
	if len(flows) == 0 {
		return
	}

	// One ledger row per observed transfer, even when it touches several
	// exchange sets; every snapshot update rides in the same write.
	record := buildTransferRecord(event)
	if err := r.store.RecordFlows(ctx, record, flows); err != nil {
		metrics.StoreErrors.Inc()
		r.logger.Error("record flows failed",
			zap.Error(err),
			zap.String("tx_hash", record.TxHash),
		)
		return
	}

	for _, flow := range flows {
		metrics.FlowsRecorded.WithLabelValues(flow.Exchange).Inc()
		r.logger.Info("flow recorded",
			zap.String("exchange", flow.Exchange),
			zap.String("inflow", flow.Inflow.String()),
			zap.String("outflow", flow.Outflow.String()),
			zap.Uint64("block_number", record.BlockNumber),
			zap.String("tx_hash", record.TxHash),
		)
	}
}

func (r *Runner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}

func buildTransferRecord(event model.TransferEvent) model.TransferRecord {
	return model.TransferRecord{
		BlockNumber: event.BlockNumber,
		TxHash:      event.TxHash.Hex(),
		LogIndex:    event.LogIndex,
		FromAddress: event.From.Hex(),
		ToAddress:   event.To.Hex(),
		Amount:      event.Amount.String(),
		ObservedAt:  event.ObservedAt,
	}
}
