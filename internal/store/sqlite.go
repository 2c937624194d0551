package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JonMunkholm/collegemap/internal/core"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS college_information (
	college_id      TEXT PRIMARY KEY,
	status          TEXT NOT NULL,
	home_university TEXT NOT NULL
)`

const sqliteUpsert = `INSERT INTO college_information (college_id, status, home_university)
VALUES (?, ?, ?)
ON CONFLICT (college_id) DO UPDATE SET
	status = excluded.status,
	home_university = excluded.home_university`

// SQLite keeps the reference mapping in an indexed SQLite file, for
// reference tables too large to hold in memory.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the index file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps writers from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Lookup implements core.Lookup.
func (s *SQLite) Lookup(ctx context.Context, collegeID string) (core.CollegeInfo, bool, error) {
	var info core.CollegeInfo
	err := s.db.QueryRowContext(ctx,
		`SELECT status, home_university FROM college_information WHERE college_id = ?`,
		collegeID,
	).Scan(&info.Status, &info.HomeUniversity)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CollegeInfo{}, false, nil
	}
	if err != nil {
		return core.CollegeInfo{}, false, err
	}
	return info, true, nil
}

// Len implements core.ReferenceStore.
func (s *SQLite) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM college_information`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Begin implements core.ReferenceStore. The table is emptied inside the
// transaction, so a rolled back batch leaves the previous contents intact.
func (s *SQLite) Begin(ctx context.Context) (core.ReferenceBatch, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM college_information`); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("clear college_information: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("prepare upsert: %w", err)
	}

	return &sqliteBatch{tx: tx, stmt: stmt}, nil
}

type sqliteBatch struct {
	tx   *sql.Tx
	stmt *sql.Stmt
	done bool
}

func (b *sqliteBatch) Put(ctx context.Context, collegeID string, info core.CollegeInfo) error {
	_, err := b.stmt.ExecContext(ctx, collegeID, info.Status, info.HomeUniversity)
	return err
}

func (b *sqliteBatch) Commit(context.Context) error {
	b.done = true
	b.stmt.Close()
	return b.tx.Commit()
}

func (b *sqliteBatch) Rollback(context.Context) error {
	if b.done {
		return nil
	}
	b.done = true
	b.stmt.Close()
	return b.tx.Rollback()
}
