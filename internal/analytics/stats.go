package analytics

import (
	"math"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

// Stats summarises a historical window.
type Stats struct {
	Mean   float64
	StdDev float64
	Count  int
	Min    float64
	Max    float64
}

// Aggregate computes population statistics (variance divided by Count, not
// Count-1) over a window that the caller has already partitioned.
// A window of identical values, including a single reading, has StdDev 0.
func Aggregate(window []domain.Reading) (Stats, error) {
	if len(window) == 0 {
		return Stats{}, &InsufficientDataError{Window: HistoricalWindow}
	}

	s := Stats{Count: len(window), Min: window[0].Value, Max: window[0].Value}
	var sum float64
	for _, r := range window {
		sum += r.Value
		s.Min = math.Min(s.Min, r.Value)
		s.Max = math.Max(s.Max, r.Value)
	}
	if s.Min == s.Max {
		s.Mean = s.Min
		return s, nil
	}

	s.Mean = sum / float64(s.Count)
	var squares float64
	for _, r := range window {
		d := r.Value - s.Mean
		squares += d * d
	}
	s.StdDev = math.Sqrt(squares / float64(s.Count))
	return s, nil
}
