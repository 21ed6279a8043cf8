// Command anomaly-lambda is the function behind DETECTOR=lambda. It scores
// the payload sent by cloud.LambdaDetector with the statistical detector.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/analytics"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/cloud"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("fn", "anomaly-detection").Logger()

func handler(_ context.Context, p cloud.DetectionPayload) ([]domain.AnomalyResult, error) {
	results, err := analytics.Score(p.SensorData, p.HistoricalData, p.AnomalyThreshold)
	if err != nil {
		logger.Warn().Err(err).Float64("threshold", p.AnomalyThreshold).Msg("rejected payload")
		return nil, err
	}
	logger.Info().
		Int("recent", len(p.SensorData)).
		Int("historical", len(p.HistoricalData)).
		Int("anomalous", len(analytics.Anomalous(results))).
		Msg("scored readings")
	return results, nil
}

func main() {
	lambda.Start(handler)
}
