package model

import "context"

// Writer defines a generic interface for handing a finished report to an output sink.
type Writer interface {
	// Write takes a finished report and persists or publishes it.
	Write(ctx context.Context, report *Report) error

	// Name returns the writer type, used in logs.
	Name() string
}

// LineSource supplies raw flow-log lines one at a time.
type LineSource interface {
	// Next advances to the next line. It returns false at the end of input or on error.
	Next() bool
	// Text returns the current line.
	Text() string
	// Oversized reports whether the current line was too long to be read.
	Oversized() bool
	// Err returns the first read error, if any.
	Err() error
}
