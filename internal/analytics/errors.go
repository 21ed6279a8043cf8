package analytics

import (
	"errors"
	"fmt"
	"time"
)

// Window names carried by InsufficientDataError.
const (
	HistoricalWindow = "historical"
	RecentWindow     = "recent"
)

var (
	ErrInsufficientData   = errors.New("insufficient data")
	ErrInvalidThreshold   = errors.New("invalid anomaly threshold")
	ErrUnmatchedPartition = errors.New("unmatched partition")
	ErrNoData             = errors.New("no data")
)

// InsufficientDataError reports an empty window. SensorID and Requested are
// filled in by callers that fetched the window from a store.
type InsufficientDataError struct {
	SensorID  string
	Window    string
	Requested int
	Got       int
}

func (e *InsufficientDataError) Error() string {
	msg := fmt.Sprintf("insufficient data: %s window has %d readings", e.Window, e.Got)
	if e.Requested > 0 {
		msg += fmt.Sprintf(" (requested %d)", e.Requested)
	}
	if e.SensorID != "" {
		msg += " for sensor " + e.SensorID
	}
	return msg
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

type InvalidThresholdError struct {
	Threshold float64
}

func (e *InvalidThresholdError) Error() string {
	return fmt.Sprintf("invalid anomaly threshold %v: must be a finite value greater than 0", e.Threshold)
}

func (e *InvalidThresholdError) Unwrap() error { return ErrInvalidThreshold }

// UnmatchedPartitionError is recoverable: the scorer degrades it to a
// zero-score, non-anomalous result.
type UnmatchedPartitionError struct {
	Partition Partition
}

func (e *UnmatchedPartitionError) Error() string {
	return fmt.Sprintf("no historical readings for partition %s", e.Partition)
}

func (e *UnmatchedPartitionError) Unwrap() error { return ErrUnmatchedPartition }

type NoDataError struct {
	Area       string
	SensorType string
	Start      time.Time
	End        time.Time
	Scanned    int
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no %s readings for %q between %s and %s (%d scanned)",
		e.SensorType, e.Area, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), e.Scanned)
}

func (e *NoDataError) Unwrap() error { return ErrNoData }
