package repository

import (
	"context"
	"fmt"
	"time"

	"dexscreener-extractor/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const createArchiveTables = `
CREATE TABLE IF NOT EXISTS extraction_batches (
    id            BIGSERIAL   PRIMARY KEY,
    captured_at   TIMESTAMPTZ NOT NULL,
    source        TEXT        NOT NULL,
    is_automatic  BOOLEAN     NOT NULL,
    row_count     INTEGER     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_extraction_batches_captured_at
    ON extraction_batches (captured_at DESC);

CREATE TABLE IF NOT EXISTS extraction_rows (
    batch_id      BIGINT  NOT NULL REFERENCES extraction_batches (id) ON DELETE CASCADE,
    position      INTEGER NOT NULL,
    token_symbol  TEXT    NOT NULL,
    token_name    TEXT    NOT NULL,
    dex_name      TEXT    NOT NULL,
    price         TEXT    NOT NULL,
    age           TEXT    NOT NULL,
    txns          TEXT    NOT NULL,
    volume        TEXT    NOT NULL,
    makers        TEXT    NOT NULL,
    change_5m     TEXT    NOT NULL,
    change_1h     TEXT    NOT NULL,
    change_6h     TEXT    NOT NULL,
    change_24h    TEXT    NOT NULL,
    liquidity     TEXT    NOT NULL,
    mcap          TEXT    NOT NULL,
    pair_url      TEXT    NOT NULL,
    PRIMARY KEY (batch_id, position)
);
`

const insertRow = `INSERT INTO extraction_rows (
    batch_id, position, token_symbol, token_name, dex_name, price, age, txns, volume,
    makers, change_5m, change_1h, change_6h, change_24h, liquidity, mcap, pair_url
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ArchivedBatch is the summary of one archived extraction.
type ArchivedBatch struct {
	ID         int64     `json:"id"`
	CapturedAt time.Time `json:"capturedAt"`
	Source     string    `json:"source"`
	Automatic  bool      `json:"isAutomatic"`
	RowCount   int       `json:"rowCount"`
}

// BatchRepository archives every sent batch in Postgres. It is optional and
// only wired when DATABASE_URL is configured.
type BatchRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewBatchRepository(pool PgxPool, tracer trace.Tracer) *BatchRepository {
	return &BatchRepository{pool: pool, tracer: tracer}
}

func (r *BatchRepository) RunMigrations(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "batch-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createArchiveTables)
	return err
}

// ArchiveBatch stores the batch header and all its rows, returning the batch id.
func (r *BatchRepository) ArchiveBatch(ctx context.Context, batch domain.ExtractionBatch) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "batch-repo.archive-batch")
	defer span.End()
	span.SetAttributes(attribute.Int("rows", len(batch.Rows)))

	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO extraction_batches (captured_at, source, is_automatic, row_count)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		batch.CapturedAt.UTC(), batch.Source, batch.Automatic, len(batch.Rows),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert batch: %w", err)
	}
	if len(batch.Rows) == 0 {
		return id, nil
	}

	b := &pgx.Batch{}
	for i, row := range batch.Rows {
		b.Queue(insertRow,
			id, i, row.TokenSymbol, row.TokenName, row.DexName, row.Price, row.Age, row.Txns,
			row.Volume, row.Makers, row.Change5m, row.Change1h, row.Change6h, row.Change24h,
			row.Liquidity, row.MarketCap, row.PairURL,
		)
	}

	br := r.pool.SendBatch(ctx, b)
	defer br.Close()

	for range batch.Rows {
		if _, err := br.Exec(); err != nil {
			return id, fmt.Errorf("insert rows of batch %d: %w", id, err)
		}
	}
	return id, nil
}

func (r *BatchRepository) RecentBatches(ctx context.Context, limit int) ([]ArchivedBatch, error) {
	ctx, span := r.tracer.Start(ctx, "batch-repo.recent-batches")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, captured_at, source, is_automatic, row_count
		 FROM extraction_batches
		 ORDER BY captured_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []ArchivedBatch
	for rows.Next() {
		var b ArchivedBatch
		if err := rows.Scan(&b.ID, &b.CapturedAt, &b.Source, &b.Automatic, &b.RowCount); err != nil {
			return nil, err
		}
		b.CapturedAt = b.CapturedAt.UTC()
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
