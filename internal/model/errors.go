package model

import (
	"errors"
	"fmt"
)

var (
	// ErrResourceNotFound means an input source could not be located or opened.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrMalformedInput means an input source exists but does not have the expected shape.
	ErrMalformedInput = errors.New("malformed input")
	// ErrRecordSkipped marks a single flow-log line that was left out of the counts.
	ErrRecordSkipped = errors.New("record skipped")
)

// SkipReason classifies why a flow-log line was skipped.
type SkipReason string

const (
	SkipTooFewFields      SkipReason = "too_few_fields"
	SkipProtocolNotNumber SkipReason = "protocol_not_integer"
	SkipLineTooLong       SkipReason = "line_too_long"
)

// SkipReasons lists every skip reason in reporting order.
var SkipReasons = []SkipReason{SkipTooFewFields, SkipProtocolNotNumber, SkipLineTooLong}

// SkippedRecord describes one skipped flow-log line.
type SkippedRecord struct {
	Line   int
	Reason SkipReason
	Detail string
}

// SkipError is returned for a flow-log line that contributes to neither count table.
type SkipError struct {
	Record SkippedRecord
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("line %d skipped (%s): %s", e.Record.Line, e.Record.Reason, e.Record.Detail)
}

// Is reports whether target is ErrRecordSkipped.
func (e *SkipError) Is(target error) bool {
	return target == ErrRecordSkipped
}
