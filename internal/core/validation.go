package core

// validation.go checks CSV headers and rows before they are used.
//
// Only presence is validated: a table's required columns must appear in the
// header, and a row must be wide enough to hold them.

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation failure for a field.
type ValidationError struct {
	Field   string // Field/column name
	Line    int    // CSV line number, 0 for header problems
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	b.WriteString(e.Message)
	return b.String()
}

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are trimmed and lowercased; a repeated name resolves to its last column.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// ValidateHeaders validates that all required columns of table exist in the
// header. Returns the header index, or an ErrMalformedHeader listing every
// missing column.
func ValidateHeaders(headers []string, table TableInfo) (HeaderIndex, error) {
	idx := MakeHeaderIndex(headers)
	var missing []string

	for _, spec := range table.FieldSpecs {
		if !spec.Required {
			continue
		}
		if _, ok := idx[strings.ToLower(spec.Name)]; !ok {
			missing = append(missing, spec.Name)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s is missing required columns: %s",
			ErrMalformedHeader, table.Label, strings.Join(missing, ", "))
	}

	return idx, nil
}

// Position returns the index of a column that ValidateHeaders has already
// confirmed is present.
func (h HeaderIndex) Position(name string) int {
	return h[strings.ToLower(name)]
}

// checkRowWidth rejects a row too short to contain every required column.
func checkRowWidth(row []string, line int, idx HeaderIndex, table TableInfo) error {
	for _, spec := range table.FieldSpecs {
		if !spec.Required {
			continue
		}
		if idx.Position(spec.Name) >= len(row) {
			return fmt.Errorf("%w: %s", ErrMalformedRow, ValidationError{
				Field:   spec.Name,
				Line:    line,
				Message: fmt.Sprintf("required field absent (row has %d fields)", len(row)),
			})
		}
	}
	return nil
}
