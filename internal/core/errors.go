package core

// errors.go defines the failure taxonomy of a run and maps failures to
// short codes an operator can quote.
//
//	FILE001 - Missing file: a source file is absent or unreadable
//	VAL001  - Malformed header: a required column is missing
//	VAL002  - Malformed row: a row is too wide or lacks a required field
//	VAL003  - Invalid college code: the code is not an integer
//	DB001   - Database unavailable: connection refused, reset, or timed out
//	RUN001  - Cancelled: the run was interrupted
//	ERR000  - Anything else; check the log for the underlying error
//
// Unmatched college ids are not errors. They produce an Unknown pair and a
// warning, and the run continues.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingFile     = errors.New("missing file")
	ErrMalformedHeader = errors.New("malformed header")
	ErrMalformedRow    = errors.New("malformed row")
	ErrInvalidCode     = errors.New("invalid college code")
)

// CodeError reports a college code that could not be normalized.
type CodeError struct {
	Code string
	Err  error
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrInvalidCode, e.Code, e.Err)
}

func (e *CodeError) Is(target error) bool {
	return target == ErrInvalidCode
}

func (e *CodeError) Unwrap() error {
	return e.Err
}

// UserMessage provides operator-facing error information with guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorKind struct {
	target error
	msg    UserMessage
}

// errorKinds are checked with errors.Is, in order.
var errorKinds = []errorKind{
	{ErrMissingFile, UserMessage{
		Message: "A source file is missing or unreadable",
		Action:  "Check REFERENCE_PATH and INPUT_PATH point at existing CSV files",
		Code:    "FILE001",
	}},
	{ErrMalformedHeader, UserMessage{
		Message: "A required column is missing from the CSV header",
		Action:  "Make sure the header row names every required column",
		Code:    "VAL001",
	}},
	{ErrInvalidCode, UserMessage{
		Message: "A college code is not an integer",
		Action:  "Fix the row or rerun with INVALID_CODE_POLICY=flag",
		Code:    "VAL003",
	}},
	{ErrMalformedRow, UserMessage{
		Message: "A row does not match the header",
		Action:  "Check the reported line for extra or missing fields",
		Code:    "VAL002",
	}},
	{context.Canceled, UserMessage{
		Message: "The run was cancelled",
		Action:  "Rerun when ready; no output was written",
		Code:    "RUN001",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "The run timed out",
		Action:  "Rerun; check database latency if using a database backend",
		Code:    "RUN001",
	}},
}

// dbPatterns catch driver errors that do not wrap a sentinel.
var dbPatterns = []string{"connection refused", "connection reset", "failed to connect", "i/o timeout"}

var dbMessage = UserMessage{
	Message: "Unable to reach the database",
	Action:  "Check DATABASE_URL and that the server is running",
	Code:    "DB001",
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log for the underlying error",
	Code:    "ERR000",
}

// MapError converts an error into an operator-facing message.
// Returns an empty UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.msg
		}
	}

	lower := strings.ToLower(err.Error())
	for _, p := range dbPatterns {
		if strings.Contains(lower, p) {
			return dbMessage
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
