package features

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySeries is returned when a required input series has no rows.
	ErrEmptySeries = errors.New("empty series")
	// ErrInsufficientHistory is returned when no row has a full indicator lookback.
	ErrInsufficientHistory = errors.New("insufficient history for indicator lookback")
	// ErrUnscoredEvent is returned when alignment receives an event without a score.
	ErrUnscoredEvent = errors.New("sentiment event has no score")
)

// DataError reports a violated input precondition for a pipeline stage.
type DataError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Reason)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func dataErr(stage string, err error, format string, args ...any) error {
	return &DataError{Stage: stage, Reason: fmt.Sprintf(format, args...), Err: err}
}
