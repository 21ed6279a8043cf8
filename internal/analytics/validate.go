package analytics

import (
	"errors"
	"fmt"
	"math"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

var ErrResponseShape = errors.New("malformed detection response")

// ResponseShapeError reports a detection result set that breaks the scoring
// contract. Index is -1 when the problem is the result count.
type ResponseShapeError struct {
	Index  int
	Detail string
}

func (e *ResponseShapeError) Error() string {
	if e.Index < 0 {
		return "malformed detection response: " + e.Detail
	}
	return fmt.Sprintf("malformed detection response at result %d: %s", e.Index, e.Detail)
}

func (e *ResponseShapeError) Unwrap() error { return ErrResponseShape }

// Validate checks that results correspond 1:1 and in order to recent, carry
// finite non-negative scores, and flag exactly the scores above threshold.
// Detectors backed by remote services are not trusted to hold these.
func Validate(recent []domain.Reading, results []domain.AnomalyResult, threshold float64) error {
	if len(results) != len(recent) {
		return &ResponseShapeError{Index: -1, Detail: fmt.Sprintf("got %d results for %d readings", len(results), len(recent))}
	}
	for i, res := range results {
		r := recent[i]
		switch {
		case !res.Timestamp.Equal(r.Timestamp):
			return &ResponseShapeError{Index: i, Detail: "timestamp does not match reading"}
		case res.Value != r.Value:
			return &ResponseShapeError{Index: i, Detail: "value does not match reading"}
		case res.SensorType != r.SensorType || res.Location != r.Location:
			return &ResponseShapeError{Index: i, Detail: "partition does not match reading"}
		case math.IsNaN(res.AnomalyScore) || math.IsInf(res.AnomalyScore, 0) || res.AnomalyScore < 0:
			return &ResponseShapeError{Index: i, Detail: fmt.Sprintf("score %v is not a finite non-negative number", res.AnomalyScore)}
		case res.IsAnomalous != (res.AnomalyScore > threshold):
			return &ResponseShapeError{Index: i, Detail: fmt.Sprintf("flag %t inconsistent with score %v and threshold %v", res.IsAnomalous, res.AnomalyScore, threshold)}
		}
	}
	return nil
}
