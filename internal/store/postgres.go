package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/collegemap/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the PostgreSQL store and publisher need.
type DB interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Begin(context.Context) (pgx.Tx, error)
}

// DefaultBatchSize is how many queued upserts are sent per round trip.
const DefaultBatchSize = 1000

// Postgres keeps the reference mapping in a PostgreSQL table.
type Postgres struct {
	db        DB
	table     string // sanitized identifier
	batchSize int
}

// NewPostgres returns a store backed by table. The table is created on the
// first Begin.
func NewPostgres(db DB, table string) *Postgres {
	return &Postgres{
		db:        db,
		table:     pgx.Identifier{table}.Sanitize(),
		batchSize: DefaultBatchSize,
	}
}

// Lookup implements core.Lookup.
func (p *Postgres) Lookup(ctx context.Context, collegeID string) (core.CollegeInfo, bool, error) {
	var info core.CollegeInfo
	err := p.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT status, home_university FROM %s WHERE college_id = $1`, p.table),
		collegeID,
	).Scan(&info.Status, &info.HomeUniversity)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.CollegeInfo{}, false, nil
	}
	if err != nil {
		return core.CollegeInfo{}, false, err
	}
	return info, true, nil
}

// Len implements core.ReferenceStore.
func (p *Postgres) Len(ctx context.Context) (int, error) {
	var n int64
	if err := p.db.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, p.table)).Scan(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}

// Begin implements core.ReferenceStore. Rows are queued and sent in pgx
// batches of batchSize, inside the same transaction that truncated the table.
func (p *Postgres) Begin(ctx context.Context) (core.ReferenceBatch, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		college_id      TEXT PRIMARY KEY,
		status          TEXT NOT NULL,
		home_university TEXT NOT NULL
	)`, p.table)
	if _, err := tx.Exec(ctx, ddl); err != nil {
		tx.Rollback(ctx)
		return nil, fmt.Errorf("create %s: %w", p.table, err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(`TRUNCATE %s`, p.table)); err != nil {
		tx.Rollback(ctx)
		return nil, fmt.Errorf("truncate %s: %w", p.table, err)
	}

	upsert := fmt.Sprintf(`INSERT INTO %s (college_id, status, home_university)
		VALUES ($1, $2, $3)
		ON CONFLICT (college_id) DO UPDATE SET
			status = EXCLUDED.status,
			home_university = EXCLUDED.home_university`, p.table)

	return &pgBatch{tx: tx, upsert: upsert, size: max(p.batchSize, 1), batch: &pgx.Batch{}}, nil
}

type pgBatch struct {
	tx     pgx.Tx
	upsert string
	size   int
	batch  *pgx.Batch
}

func (b *pgBatch) Put(ctx context.Context, collegeID string, info core.CollegeInfo) error {
	b.batch.Queue(b.upsert, collegeID, info.Status, info.HomeUniversity)
	if b.batch.Len() >= b.size {
		return b.flush(ctx)
	}
	return nil
}

// flush sends the queued upserts and starts a new batch.
func (b *pgBatch) flush(ctx context.Context) error {
	if b.batch.Len() == 0 {
		return nil
	}
	err := b.tx.SendBatch(ctx, b.batch).Close()
	b.batch = &pgx.Batch{}
	if err != nil {
		return fmt.Errorf("upsert reference rows: %w", err)
	}
	return nil
}

func (b *pgBatch) Commit(ctx context.Context) error {
	if err := b.flush(ctx); err != nil {
		return err
	}
	if err := b.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback is a no-op once the transaction has been committed.
func (b *pgBatch) Rollback(ctx context.Context) error {
	err := b.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
