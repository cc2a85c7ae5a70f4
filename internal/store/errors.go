package store

import "fmt"

// CorruptLogError means the event log cannot be trusted. It is fatal for the
// run: there is no safe partial registry to build from a damaged log.
type CorruptLogError struct {
	Source string
	Line   int
	Err    error
}

func (e *CorruptLogError) Error() string {
	return fmt.Sprintf("corrupt event log %s (line %d): %v", e.Source, e.Line, e.Err)
}

func (e *CorruptLogError) Unwrap() error { return e.Err }
