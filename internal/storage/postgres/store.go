package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ammPool/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Store provides Postgres persistence for logs, pools, window metrics and
// pool snapshots.
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

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// LogSink binds the store to ctx as a storage.Storage.
func (s *Store) LogSink(ctx context.Context) LogSink {
	return LogSink{store: s, ctx: ctx}
}

// LogSink writes log batches through a Store.
type LogSink struct {
	store *Store
	ctx   context.Context
}

func (l LogSink) PutLogBatch(logs []model.LogRecord) error {
	return l.store.PutLogs(l.ctx, logs)
}

// PutLogs stores log records, ignoring ones already present.
func (s *Store) PutLogs(ctx context.Context, logs []model.LogRecord) error {
	if len(logs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, log := range logs {
		batch.Queue(`
			INSERT INTO pool_logs (
				chain_id, pool_address, block_number, log_index, tx_hash, topic0, topics, data, removed, block_ts, ingested_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
			ON CONFLICT (chain_id, pool_address, block_number, log_index) DO NOTHING
		`,
			int64(log.ChainID),
			log.Address,
			int64(log.BlockNumber),
			int64(log.LogIndex),
			log.TxHash,
			log.Topic0(),
			log.Topics,
			log.Data,
			log.Removed,
			int64(log.Timestamp),
		)
	}
	return s.sendBatch(ctx, batch, len(logs))
}

// UpsertPools inserts or updates pool registry rows.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				chain_id, pool_address, asset1, asset2, first_seen_block, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (chain_id, pool_address)
			DO UPDATE SET
				asset1 = EXCLUDED.asset1,
				asset2 = EXCLUDED.asset2,
				first_seen_block = LEAST(pools.first_seen_block, EXCLUDED.first_seen_block),
				updated_at = now()
		`,
			int64(pool.ChainID),
			pool.Address,
			pool.Asset1,
			pool.Asset2,
			int64(pool.FirstSeenBlock),
		)
	}
	return s.sendBatch(ctx, batch, len(pools))
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				chain_id, pool_address, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, deposit_count, withdraw_count, volume1, volume2,
				reserve1_close, reserve2_close, total_shares_close, price_close, last_block,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::numeric,$10::numeric,$11::numeric,$12::numeric,$13::numeric,$14::numeric,$15,now(),now())
			ON CONFLICT (chain_id, pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				deposit_count = EXCLUDED.deposit_count,
				withdraw_count = EXCLUDED.withdraw_count,
				volume1 = EXCLUDED.volume1,
				volume2 = EXCLUDED.volume2,
				reserve1_close = EXCLUDED.reserve1_close,
				reserve2_close = EXCLUDED.reserve2_close,
				total_shares_close = EXCLUDED.total_shares_close,
				price_close = EXCLUDED.price_close,
				last_block = EXCLUDED.last_block,
				updated_at = now()
		`,
			int64(m.ChainID),
			m.PoolAddress,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.DepositCount),
			int64(m.WithdrawCount),
			m.Volume1,
			m.Volume2,
			m.Reserve1Close,
			m.Reserve2Close,
			m.TotalSharesClose,
			m.PriceClose,
			int64(m.LastBlock),
		)
	}
	return s.sendBatch(ctx, batch, len(metrics))
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot returns the stored snapshot of a pool.
func (s *Store) LoadSnapshot(ctx context.Context, poolAddress string) (model.PoolSnapshot, bool, error) {
	var (
		snap   model.PoolSnapshot
		shares []byte
		seq    int64
	)
	row := s.pool.QueryRow(ctx, `
		SELECT pool_address, asset1, asset2, reserve1::text, reserve2::text, total_shares::text, shares, sequence, updated_at
		FROM pool_snapshots WHERE pool_address=$1
	`, poolAddress)
	err := row.Scan(&snap.Address, &snap.Asset1, &snap.Asset2, &snap.Reserve1, &snap.Reserve2, &snap.TotalShares, &shares, &seq, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PoolSnapshot{}, false, nil
		}
		return model.PoolSnapshot{}, false, err
	}
	if err := json.Unmarshal(shares, &snap.Shares); err != nil {
		return model.PoolSnapshot{}, false, fmt.Errorf("decode shares: %w", err)
	}
	snap.Sequence = uint64(seq)
	return snap, true, nil
}

// SaveSnapshot upserts the snapshot of a pool.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.PoolSnapshot) error {
	shares, err := json.Marshal(snap.Shares)
	if err != nil {
		return fmt.Errorf("encode shares: %w", err)
	}
	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO pool_snapshots (
			pool_address, asset1, asset2, reserve1, reserve2, total_shares, shares, sequence, updated_at
		) VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::jsonb, $8, $9)
		ON CONFLICT (pool_address) DO UPDATE SET
			asset1 = EXCLUDED.asset1,
			asset2 = EXCLUDED.asset2,
			reserve1 = EXCLUDED.reserve1,
			reserve2 = EXCLUDED.reserve2,
			total_shares = EXCLUDED.total_shares,
			shares = EXCLUDED.shares,
			sequence = EXCLUDED.sequence,
			updated_at = EXCLUDED.updated_at
	`, snap.Address, snap.Asset1, snap.Asset2, snap.Reserve1, snap.Reserve2, snap.TotalShares, string(shares), int64(snap.Sequence), updatedAt)
	return err
}

// LoadState returns last_processed_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts last_processed_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, name, int64(ts))
	return err
}
