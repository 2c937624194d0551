// Package publish copies an enriched cutoffs file into a PostgreSQL table.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/JonMunkholm/collegemap/internal/core"
	"github.com/JonMunkholm/collegemap/internal/logging"
	"github.com/jackc/pgx/v5"
)

// DB begins the transaction a publish runs in. *pgxpool.Pool satisfies it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Publisher replaces the contents of one table with an output file.
type Publisher struct {
	db    DB
	table string
}

// New returns a Publisher writing to table.
func New(db DB, table string) *Publisher {
	return &Publisher{db: db, table: table}
}

// Publish creates the table if needed, truncates it, and copies every row
// of the CSV at path, all in one transaction. Columns are TEXT and named
// after the CSV header in snake_case. Returns the number of rows copied.
func (p *Publisher) Publish(ctx context.Context, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", core.ErrMissingFile, path)
		}
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cr := core.NewCSVReader(core.NewUTF8Reader(f))

	header, err := cr.Read()
	if err == io.EOF {
		return 0, fmt.Errorf("%w: %s is empty", core.ErrMalformedHeader, path)
	}
	if err != nil {
		return 0, fmt.Errorf("read header of %s: %w", path, err)
	}
	columns := ColumnNames(header)

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ident := pgx.Identifier{p.table}.Sanitize()
	if _, err := tx.Exec(ctx, createTableSQL(ident, columns)); err != nil {
		return 0, fmt.Errorf("create %s: %w", ident, err)
	}
	if _, err := tx.Exec(ctx, "TRUNCATE "+ident); err != nil {
		return 0, fmt.Errorf("truncate %s: %w", ident, err)
	}

	line := 1
	src := pgx.CopyFromFunc(func() ([]any, error) {
		record, err := cr.Read()
		if err == io.EOF {
			return nil, nil
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if len(record) > len(columns) {
			return nil, fmt.Errorf("%w: %s line %d has %d fields, header has %d",
				core.ErrMalformedRow, path, line, len(record), len(columns))
		}
		row := make([]any, len(columns))
		for i := range row {
			if i < len(record) {
				row[i] = record[i]
			} else {
				row[i] = ""
			}
		}
		return row, nil
	})

	n, err := tx.CopyFrom(ctx, pgx.Identifier{p.table}, columns, src)
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", ident, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logging.FromContext(ctx).Info("published output", "table", p.table, "rows", n)
	return n, nil
}

func createTableSQL(ident string, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgx.Identifier{c}.Sanitize() + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", ident, strings.Join(defs, ", "))
}

// ColumnNames converts CSV headers to snake_case column names. Runs of
// non-alphanumeric characters become one underscore. Blank names become
// column_N and repeated names get a numeric suffix.
func ColumnNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))

	for i, h := range header {
		name := toColumnName(h)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		base := name
		for k := 2; seen[name]; k++ {
			name = base + "_" + strconv.Itoa(k)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

func toColumnName(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSep = true
	}
	return b.String()
}
