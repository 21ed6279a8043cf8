package analytics

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/aggregator"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendStable  = "stable"
)

// StableBand is the fraction of the overall mean within which the half-window
// means are considered unchanged.
const StableBand = 0.05

// CityWide names the area of a summary that covers every area.
const CityWide = "the city"

// Summarize reports the trend of readings of request.SensorType inside the
// half-open range [StartTime, EndTime). The readings are ordered
// chronologically and split in two; the first half holds len/2 readings.
func Summarize(req domain.SummaryRequest, readings []domain.Reading) (domain.SummaryResult, error) {
	points := make([]aggregator.Point, 0, len(readings))
	for _, r := range readings {
		if r.SensorType != req.SensorType {
			continue
		}
		if r.Timestamp.Before(req.StartTime) || !r.Timestamp.Before(req.EndTime) {
			continue
		}
		points = append(points, aggregator.Point{Value: r.Value, Timestamp: r.Timestamp})
	}
	if len(points) == 0 {
		return domain.SummaryResult{}, &NoDataError{
			Area:       req.Area,
			SensorType: req.SensorType,
			Start:      req.StartTime,
			End:        req.EndTime,
			Scanned:    len(readings),
		}
	}

	slices.SortStableFunc(points, func(a, b aggregator.Point) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	overall := aggregator.Average(points)
	trend := TrendStable
	var first, second float64
	if half := len(points) / 2; half > 0 {
		first = aggregator.Average(points[:half])
		second = aggregator.Average(points[half:])
		trend = classifyTrend(first, second, overall)
	} else {
		first, second = overall, overall
	}

	area := req.Area
	if area == "" {
		area = CityWide
	}
	return domain.SummaryResult{
		Summary: fmt.Sprintf("%s readings in %s from %s to %s are %s: overall mean %.2f across %d readings (first half %.2f, second half %.2f).",
			req.SensorType, area,
			req.StartTime.UTC().Format(time.RFC3339), req.EndTime.UTC().Format(time.RFC3339),
			trend, overall, len(points), first, second),
		Trend: trend,
		Mean:  overall,
		Count: len(points),
	}, nil
}

func classifyTrend(first, second, overall float64) string {
	delta := second - first
	if delta == 0 || math.Abs(delta) < StableBand*math.Abs(overall) {
		return TrendStable
	}
	if delta > 0 {
		return TrendRising
	}
	return TrendFalling
}
