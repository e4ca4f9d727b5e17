package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"netflowMonitor/internal/model"
	"netflowMonitor/internal/netflow"
)

// Store provides Postgres persistence for the transfer ledger and netflow
// snapshots. Amount columns are NUMERIC(78,0) so a full uint256 fits; values
// cross the wire as decimal strings.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the transfers and netflows relations if missing.
// Idempotent; safe to run on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transfers (
			id BIGSERIAL PRIMARY KEY,
			block_number BIGINT NOT NULL,
			tx_hash TEXT NOT NULL,
			log_index BIGINT NOT NULL,
			from_address TEXT NOT NULL,
			to_address TEXT NOT NULL,
			amount NUMERIC(78,0) NOT NULL,
			observed_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS transfers_tx_hash_log_index_idx ON transfers (tx_hash, log_index);
		CREATE TABLE IF NOT EXISTS netflows (
			id BIGSERIAL PRIMARY KEY,
			exchange TEXT NOT NULL,
			inflow NUMERIC(78,0) NOT NULL,
			outflow NUMERIC(78,0) NOT NULL,
			cumulative_netflow NUMERIC(78,0) NOT NULL,
			last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS netflows_exchange_id_idx ON netflows (exchange, id DESC);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// RecordFlows appends one ledger row for the transfer and one recomputed
// netflow snapshot per classified flow, in a single transaction. Readers
// observe either every row or none. The ledger insert is conflict-guarded on
// (tx_hash, log_index), so one observed transfer can never double-count the
// audit trail.
func (s *Store) RecordFlows(ctx context.Context, record model.TransferRecord, flows []model.ClassifiedFlow) error {
	if len(flows) == 0 {
		return nil
	}
	for _, flow := range flows {
		if flow.Exchange == "" {
			return fmt.Errorf("exchange label is required")
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO transfers (block_number, tx_hash, log_index, from_address, to_address, amount, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tx_hash, log_index) DO NOTHING
	`,
		int64(record.BlockNumber),
		record.TxHash,
		int64(record.LogIndex),
		record.FromAddress,
		record.ToAddress,
		record.Amount,
		record.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}

	for _, flow := range flows {
		inflow := flow.Inflow
		if inflow == nil {
			inflow = new(big.Int)
		}
		outflow := flow.Outflow
		if outflow == nil {
			outflow = new(big.Int)
		}

		prior, err := latestCumulative(ctx, tx, flow.Exchange)
		if err != nil {
			return err
		}
		cumulative := netflow.NextCumulative(prior, inflow, outflow)

		_, err = tx.Exec(ctx, `
			INSERT INTO netflows (exchange, inflow, outflow, cumulative_netflow, last_updated)
			VALUES ($1, $2, $3, $4, now())
		`,
			flow.Exchange,
			inflow.String(),
			outflow.String(),
			cumulative.String(),
		)
		if err != nil {
			return fmt.Errorf("insert netflow: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LatestNetflow returns the highest-id snapshot for the exchange, or nil if
// none has been recorded.
func (s *Store) LatestNetflow(ctx context.Context, exchange string) (*model.NetflowSnapshot, error) {
	if exchange == "" {
		return nil, fmt.Errorf("exchange label is required")
	}

	row := s.pool.QueryRow(ctx, `
		SELECT id, exchange, inflow::text, outflow::text, cumulative_netflow::text, last_updated
		FROM netflows
		WHERE exchange = $1
		ORDER BY id DESC
		LIMIT 1
	`, exchange)

	var snap model.NetflowSnapshot
	err := row.Scan(&snap.ID, &snap.Exchange, &snap.Inflow, &snap.Outflow, &snap.CumulativeNetflow, &snap.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load latest netflow: %w", err)
	}
	return &snap, nil
}

func latestCumulative(ctx context.Context, tx pgx.Tx, exchange string) (*big.Int, error) {
	var text string
	row := tx.QueryRow(ctx, `
		SELECT cumulative_netflow::text
		FROM netflows
		WHERE exchange = $1
		ORDER BY id DESC
		LIMIT 1
	`, exchange)
	if err := row.Scan(&text); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("load prior netflow: %w", err)
	}

	prior, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt cumulative netflow for %s: %q", exchange, text)
	}
	return prior, nil
}
