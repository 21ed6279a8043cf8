package analytics

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	recent := readings("Noise Level", "Noise Level Sensor #3", 60, 95)
	good, err := Score(recent, readings("Noise Level", "Noise Level Sensor #3", 55, 60, 65), 2)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if err := Validate(recent, good, 2); err != nil {
		t.Fatalf("expected scored results to validate, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(rs []domain.AnomalyResult) []domain.AnomalyResult
		index  int
	}{
		{"missing result", func(rs []domain.AnomalyResult) []domain.AnomalyResult { return rs[:1] }, -1},
		{"timestamp", func(rs []domain.AnomalyResult) []domain.AnomalyResult {
			rs[1].Timestamp = rs[1].Timestamp.Add(1)
			return rs
		}, 1},
		{"value", func(rs []domain.AnomalyResult) []domain.AnomalyResult { rs[0].Value++; return rs }, 0},
		{"partition", func(rs []domain.AnomalyResult) []domain.AnomalyResult { rs[0].Location = "elsewhere"; return rs }, 0},
		{"nan score", func(rs []domain.AnomalyResult) []domain.AnomalyResult { rs[0].AnomalyScore = math.NaN(); return rs }, 0},
		{"negative score", func(rs []domain.AnomalyResult) []domain.AnomalyResult { rs[1].AnomalyScore = -1; return rs }, 1},
		{"flag", func(rs []domain.AnomalyResult) []domain.AnomalyResult { rs[1].IsAnomalous = !rs[1].IsAnomalous; return rs }, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(recent, tt.mutate(slices.Clone(good)), 2)
			var shape *ResponseShapeError
			if !errors.As(err, &shape) || !errors.Is(err, ErrResponseShape) {
				t.Fatalf("expected ResponseShapeError, got %v", err)
			}
			if shape.Index != tt.index {
				t.Fatalf("expected index %d, got %d (%v)", tt.index, shape.Index, err)
			}
		})
	}
}
