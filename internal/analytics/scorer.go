package analytics

import (
	"fmt"
	"math"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

// NoBaselineReason is the reason attached to readings whose partition has no
// historical data.
const NoBaselineReason = "no historical baseline"

// Partition is the unit over which aggregates are computed.
type Partition struct {
	SensorType string
	Location   string
}

func (p Partition) String() string { return p.SensorType + "@" + p.Location }

func PartitionOf(r domain.Reading) Partition {
	return Partition{SensorType: r.SensorType, Location: r.Location}
}

// ValidateThreshold rejects zero, negative, NaN and infinite thresholds.
func ValidateThreshold(threshold float64) error {
	if !(threshold > 0) || math.IsInf(threshold, 1) {
		return &InvalidThresholdError{Threshold: threshold}
	}
	return nil
}

type baseline struct {
	stats Stats
	err   error
}

// Score classifies every recent reading against the historical aggregate of
// its own partition. The output has one result per recent reading, in input
// order, and IsAnomalous is always AnomalyScore > threshold.
//
// When the baseline has zero variance the score falls back to the raw
// absolute deviation, compared against threshold in the reading's units.
func Score(recent, historical []domain.Reading, threshold float64) ([]domain.AnomalyResult, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	groups := make(map[Partition][]domain.Reading)
	for _, r := range historical {
		p := PartitionOf(r)
		groups[p] = append(groups[p], r)
	}

	baselines := make(map[Partition]baseline)
	results := make([]domain.AnomalyResult, len(recent))
	for i, r := range recent {
		p := PartitionOf(r)
		b, ok := baselines[p]
		if !ok {
			b = newBaseline(p, groups[p])
			baselines[p] = b
		}
		results[i] = b.score(r, threshold)
	}
	return results, nil
}

func newBaseline(p Partition, window []domain.Reading) baseline {
	stats, err := Aggregate(window)
	if err != nil {
		return baseline{err: &UnmatchedPartitionError{Partition: p}}
	}
	return baseline{stats: stats}
}

func (b baseline) score(r domain.Reading, threshold float64) domain.AnomalyResult {
	res := domain.AnomalyResult{
		Timestamp:  r.Timestamp,
		Value:      r.Value,
		SensorType: r.SensorType,
		Location:   r.Location,
	}
	if b.err != nil {
		res.Reason = NoBaselineReason
		return res
	}

	deviation := math.Abs(r.Value - b.stats.Mean)
	if b.stats.StdDev > 0 {
		res.AnomalyScore = deviation / b.stats.StdDev
		res.Reason = fmt.Sprintf("value %.2f deviates %.2f standard deviations from historical mean %.2f (threshold %.2f)",
			r.Value, res.AnomalyScore, b.stats.Mean, threshold)
	} else {
		res.AnomalyScore = deviation
		res.Reason = fmt.Sprintf("value %.2f deviates %.2f units from historical mean %.2f with zero historical variance (threshold %.2f)",
			r.Value, res.AnomalyScore, b.stats.Mean, threshold)
	}
	res.IsAnomalous = res.AnomalyScore > threshold
	return res
}

// Anomalous returns the flagged subset of results, preserving order.
func Anomalous(results []domain.AnomalyResult) []domain.AnomalyResult {
	var out []domain.AnomalyResult
	for _, r := range results {
		if r.IsAnomalous {
			out = append(out, r)
		}
	}
	return out
}
