package core

import (
	"context"
	"strings"
)

// Column names shared by the reference and cutoffs tables.
const (
	ColCollegeID      = "college_id"
	ColCollegeCode    = "college_code"
	ColStatus         = "status"
	ColHomeUniversity = "home_university"
)

// UnknownValue is written to both appended columns when a row has no match.
const UnknownValue = "Unknown"

// CollegeInfo is the reference value for one college id.
type CollegeInfo struct {
	Status         string
	HomeUniversity string
}

// unknownInfo is the sentinel pair for unmatched or flagged rows.
var unknownInfo = CollegeInfo{Status: UnknownValue, HomeUniversity: UnknownValue}

// FieldSpec defines a column a table must carry.
type FieldSpec struct {
	Name     string // Column header name (matched case-insensitively)
	Required bool   // Column must exist in the CSV header
}

// TableInfo describes one of the CSV tables a run touches.
type TableInfo struct {
	Key        string      // Stable identifier: "college_information"
	Label      string      // Display name used in errors and logs
	FieldSpecs []FieldSpec // Columns the table must provide
}

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// Lookup resolves a normalized college id to its reference pair.
type Lookup interface {
	Lookup(ctx context.Context, collegeID string) (CollegeInfo, bool, error)
}

// ReferenceStore holds the reference mapping for the duration of a run.
// Contents are replaced as a whole by committing a batch.
type ReferenceStore interface {
	Lookup
	Begin(ctx context.Context) (ReferenceBatch, error)
	Len(ctx context.Context) (int, error)
}

// ReferenceBatch stages reference records. Put overwrites earlier values for
// the same id. Rollback after Commit is a no-op.
type ReferenceBatch interface {
	Put(ctx context.Context, collegeID string, info CollegeInfo) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// InvalidCodePolicy decides what happens to a row whose college code is not
// an integer.
type InvalidCodePolicy int

const (
	// InvalidCodeAbort fails the run on the first invalid code.
	InvalidCodeAbort InvalidCodePolicy = iota
	// InvalidCodeFlag writes the Unknown pair, logs a warning, and continues.
	InvalidCodeFlag
)

// ParseInvalidCodePolicy maps a config value ("abort", "flag") to a policy.
// Unknown values fall back to InvalidCodeAbort.
func ParseInvalidCodePolicy(s string) InvalidCodePolicy {
	if strings.EqualFold(strings.TrimSpace(s), "flag") {
		return InvalidCodeFlag
	}
	return InvalidCodeAbort
}

func (p InvalidCodePolicy) String() string {
	if p == InvalidCodeFlag {
		return "flag"
	}
	return "abort"
}
