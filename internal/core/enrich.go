package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// ContextCheckInterval is how often (in rows) to check for context
// cancellation and log progress.
const ContextCheckInterval = 100

// EnrichOptions tunes a single enrichment pass.
type EnrichOptions struct {
	// ReferenceName names the reference source in unmatched-id warnings.
	ReferenceName string

	// InvalidCodes decides what happens to rows with a non-integer code.
	InvalidCodes InvalidCodePolicy

	// Logger receives per-row warnings. Defaults to slog.Default().
	Logger *slog.Logger

	// InputSize is the input size in bytes, used for progress; 0 if unknown.
	InputSize int64
}

// EnrichResult summarizes a completed enrichment pass.
type EnrichResult struct {
	Rows      int      // Data rows written (always equals data rows read)
	Matched   int      // Rows whose college id was found
	Unmatched []string // College ids not found, one entry per row, in row order
	Invalid   []string // Raw codes flagged under InvalidCodeFlag, in row order
	BytesRead int64
}

// Enrich reads the cutoffs table from in and writes it to out with status
// and home_university appended to every row. The header is written first.
func Enrich(ctx context.Context, in io.Reader, out io.Writer, lookup Lookup, opts EnrichOptions) (EnrichResult, error) {
	var result EnrichResult

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	decoded, counter := WrapForStreaming(in, opts.InputSize)
	reader := NewCSVReader(decoded)
	writer := newCSVWriter(out)

	header, err := reader.Read()
	if err == io.EOF {
		return result, fmt.Errorf("%w: %s file is empty", ErrMalformedHeader, CutoffsTable.Label)
	}
	if err != nil {
		return result, fmt.Errorf("read header: %w", err)
	}

	idx, err := ValidateHeaders(header, CutoffsTable)
	if err != nil {
		return result, err
	}
	codePos := idx.Position(ColCollegeCode)
	width := len(header)

	outHeader := make([]string, 0, width+len(AppendedColumns))
	outHeader = append(append(outHeader, header...), AppendedColumns...)
	if err := writer.Write(outHeader); err != nil {
		return result, fmt.Errorf("write header: %w", err)
	}

	record := make([]string, width+len(AppendedColumns))

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("%w: %v", ErrMalformedRow, err)
		}
		line, _ := reader.FieldPos(0)

		if result.Rows%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return result, fmt.Errorf("operation cancelled at line %d: %w", line, err)
			}
			if result.Rows > 0 {
				logger.Debug("enrich progress",
					"rows", result.Rows,
					"read", humanize.Bytes(uint64(counter.BytesRead)),
					"percent", counter.Progress(),
				)
			}
		}

		if len(row) > width {
			return result, fmt.Errorf("%w: %s", ErrMalformedRow, ValidationError{
				Line:    line,
				Message: fmt.Sprintf("row has %d fields, header has %d", len(row), width),
			})
		}
		if err := checkRowWidth(row, line, idx, CutoffsTable); err != nil {
			return result, err
		}

		info, err := resolve(ctx, row[codePos], lookup, opts, logger, &result)
		if err != nil {
			return result, fmt.Errorf("line %d: %w", line, err)
		}

		// Short rows are padded so appended fields stay aligned with the header.
		n := copy(record, row)
		clear(record[n:width])
		record[width] = info.Status
		record[width+1] = info.HomeUniversity

		if err := writer.Write(record); err != nil {
			return result, fmt.Errorf("write line %d: %w", line, err)
		}
		result.Rows++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return result, fmt.Errorf("flush: %w", err)
	}

	result.BytesRead = counter.BytesRead
	return result, nil
}

// resolve produces the appended pair for one row's college code.
func resolve(ctx context.Context, code string, lookup Lookup, opts EnrichOptions, logger *slog.Logger, result *EnrichResult) (CollegeInfo, error) {
	collegeID, err := NormalizeCollegeCode(code)
	if err != nil {
		if opts.InvalidCodes != InvalidCodeFlag {
			return CollegeInfo{}, err
		}
		logger.Warn("invalid college code, writing Unknown",
			"college_code", code,
		)
		result.Invalid = append(result.Invalid, code)
		return unknownInfo, nil
	}

	info, ok, err := lookup.Lookup(ctx, collegeID)
	if err != nil {
		return CollegeInfo{}, fmt.Errorf("lookup college id %s: %w", collegeID, err)
	}
	if !ok {
		logger.Warn("college ID not found in reference",
			"college_id", collegeID,
			"reference", opts.ReferenceName,
		)
		result.Unmatched = append(result.Unmatched, collegeID)
		return unknownInfo, nil
	}

	result.Matched++
	return info, nil
}

// EnrichFile runs Enrich from inputPath to outputPath. Output goes to a
// temporary file in the destination directory that is renamed into place
// only on success, so a failed run never leaves a partial output file.
func EnrichFile(ctx context.Context, inputPath, outputPath string, lookup Lookup, opts EnrichOptions) (EnrichResult, error) {
	in, err := openSource(inputPath)
	if err != nil {
		return EnrichResult{}, err
	}
	defer in.Close()

	if opts.InputSize == 0 {
		if st, err := in.Stat(); err == nil {
			opts.InputSize = st.Size()
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), "."+filepath.Base(outputPath)+".*.tmp")
	if err != nil {
		return EnrichResult{}, fmt.Errorf("create output: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	result, err := Enrich(ctx, in, tmp, lookup, opts)
	if err != nil {
		return result, fmt.Errorf("%s: %w", inputPath, err)
	}

	if err := tmp.Close(); err != nil {
		return result, fmt.Errorf("close output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return result, fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		return result, fmt.Errorf("move output into place: %w", err)
	}
	committed = true

	return result, nil
}
