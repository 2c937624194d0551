package core

// streaming.go wraps CSV inputs so common file artifacts never reach the
// parser:
//
//   - a UTF-8 byte order mark (Windows exports) is dropped
//   - invalid UTF-8 sequences become U+FFFD
//   - bytes consumed are counted for progress reporting
//
// Use WrapForStreaming to apply all of them in the correct order.

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// StreamingCountingReader wraps an io.Reader to track bytes read.
type StreamingCountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // If known (0 if unknown)
}

// NewStreamingCountingReader creates a counting reader with optional total size.
func NewStreamingCountingReader(r io.Reader, total int64) *StreamingCountingReader {
	return &StreamingCountingReader{
		reader: r,
		Total:  total,
	}
}

// Read implements io.Reader.
func (r *StreamingCountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *StreamingCountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead * 100 / r.Total)
}

// NewUTF8Reader strips a leading BOM and replaces invalid UTF-8 with U+FFFD.
func NewUTF8Reader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// WrapForStreaming counts raw bytes, then decodes. Counting sits below the
// decoder so progress is measured against the on-disk size.
func WrapForStreaming(r io.Reader, totalSize int64) (io.Reader, *StreamingCountingReader) {
	counter := NewStreamingCountingReader(r, totalSize)
	return NewUTF8Reader(counter), counter
}

// NewCSVReader returns a reader that tolerates ragged rows and stray quotes
// inside unquoted fields (Govt 12" Polytechnic). Width checks are done by
// the caller so errors can name the line.
func NewCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// newCSVWriter writes comma-separated rows with CRLF line endings. With
// UseCRLF a lone \r inside a field is dropped and \n is written as \r\n.
func newCSVWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	return cw
}
