package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadReference streams a college information table and calls fn once per
// data row with the college id exactly as written and its pair. Returns the
// number of data rows read.
func ReadReference(r io.Reader, fn func(collegeID string, info CollegeInfo) error) (int, error) {
	reader := NewCSVReader(NewUTF8Reader(r))

	header, err := reader.Read()
	if err == io.EOF {
		return 0, fmt.Errorf("%w: %s file is empty", ErrMalformedHeader, ReferenceTable.Label)
	}
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	idx, err := ValidateHeaders(header, ReferenceTable)
	if err != nil {
		return 0, err
	}
	idPos := idx.Position(ColCollegeID)
	statusPos := idx.Position(ColStatus)
	homePos := idx.Position(ColHomeUniversity)

	rows := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("%w: %v", ErrMalformedRow, err)
		}
		line, _ := reader.FieldPos(0)

		if err := checkRowWidth(row, line, idx, ReferenceTable); err != nil {
			return rows, err
		}

		info := CollegeInfo{Status: row[statusPos], HomeUniversity: row[homePos]}
		if err := fn(row[idPos], info); err != nil {
			return rows, fmt.Errorf("line %d: %w", line, err)
		}
		rows++
	}

	return rows, nil
}

// LoadReference reads the reference file at path into store, replacing its
// contents, and returns the number of distinct college ids now held.
// Nothing is committed if any row fails.
func LoadReference(ctx context.Context, path string, store ReferenceStore) (int, error) {
	f, err := openSource(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	batch, err := store.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin reference load: %w", err)
	}
	defer batch.Rollback(ctx) // No-op if already committed

	_, err = ReadReference(f, func(collegeID string, info CollegeInfo) error {
		return batch.Put(ctx, collegeID, info)
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	if err := batch.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit reference load: %w", err)
	}

	return store.Len(ctx)
}

// LoadReferenceMap loads the reference file into memory.
func LoadReferenceMap(ctx context.Context, path string) (ReferenceMap, error) {
	m := ReferenceMap{}
	if _, err := LoadReference(ctx, path, m); err != nil {
		return nil, err
	}
	return m, nil
}

// openSource opens a CSV input, classifying open failures as ErrMissingFile.
func openSource(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingFile, err)
	}
	return f, nil
}

// ReferenceMap is the in-memory reference mapping: college id -> pair.
// It satisfies ReferenceStore; a committed batch replaces every entry.
type ReferenceMap map[string]CollegeInfo

// Lookup implements Lookup.
func (m ReferenceMap) Lookup(_ context.Context, collegeID string) (CollegeInfo, bool, error) {
	info, ok := m[collegeID]
	return info, ok, nil
}

// Len implements ReferenceStore.
func (m ReferenceMap) Len(context.Context) (int, error) {
	return len(m), nil
}

// Begin implements ReferenceStore.
func (m ReferenceMap) Begin(context.Context) (ReferenceBatch, error) {
	return &mapBatch{target: m, staged: make(map[string]CollegeInfo)}, nil
}

type mapBatch struct {
	target ReferenceMap
	staged map[string]CollegeInfo
	done   bool
}

var errBatchDone = errors.New("batch already finished")

func (b *mapBatch) Put(_ context.Context, collegeID string, info CollegeInfo) error {
	if b.done {
		return errBatchDone
	}
	b.staged[collegeID] = info
	return nil
}

func (b *mapBatch) Commit(context.Context) error {
	if b.done {
		return errBatchDone
	}
	b.done = true
	clear(b.target)
	for k, v := range b.staged {
		b.target[k] = v
	}
	return nil
}

func (b *mapBatch) Rollback(context.Context) error {
	b.done = true
	b.staged = nil
	return nil
}
