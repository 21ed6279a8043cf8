package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/analytics"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

type AnomalyService struct {
	store     ReadingStore
	detector  Detector
	alerts    *AlertService
	notifier  Notifier
	maxWindow int
	log       zerolog.Logger
}

// DetectAnomalies scores the recentCount latest readings of a sensor against
// its historicalCount readings. Flagged readings are recorded as alerts and
// passed to the notifier; failures there are logged, not returned.
func (s *AnomalyService) DetectAnomalies(ctx context.Context, sensorID string, recentCount, historicalCount int, threshold float64) ([]domain.AnomalyResult, error) {
	if err := analytics.ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	if recentCount <= 0 || historicalCount <= 0 {
		return nil, fmt.Errorf("window sizes must be positive (recent %d, historical %d): %w", recentCount, historicalCount, ErrInvalidRequest)
	}
	if recentCount > s.maxWindow || historicalCount > s.maxWindow {
		return nil, fmt.Errorf("window sizes must not exceed %d (recent %d, historical %d): %w", s.maxWindow, recentCount, historicalCount, ErrInvalidRequest)
	}

	sensor, err := s.store.Sensor(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.FetchRecent(ctx, sensorID, recentCount)
	if err != nil {
		return nil, fmt.Errorf("fetch recent readings for %s: %w", sensorID, err)
	}
	historical, err := s.store.FetchHistorical(ctx, sensorID, historicalCount)
	if err != nil {
		return nil, fmt.Errorf("fetch historical readings for %s: %w", sensorID, err)
	}
	if len(historical) == 0 {
		return nil, &analytics.InsufficientDataError{SensorID: sensorID, Window: analytics.HistoricalWindow, Requested: historicalCount}
	}
	if len(recent) == 0 {
		return nil, &analytics.InsufficientDataError{SensorID: sensorID, Window: analytics.RecentWindow, Requested: recentCount}
	}

	results, err := s.detector.Detect(ctx, recent, historical, threshold)
	if err != nil {
		return nil, fmt.Errorf("detect anomalies for %s: %w", sensorID, err)
	}
	if err := analytics.Validate(recent, results, threshold); err != nil {
		return nil, fmt.Errorf("detect anomalies for %s: %w", sensorID, err)
	}

	flagged := analytics.Anomalous(results)
	degraded := 0
	for _, r := range results {
		if r.Reason == analytics.NoBaselineReason {
			degraded++
		}
	}
	s.log.Info().
		Str("sensor", sensorID).
		Int("recent", len(recent)).
		Int("historical", len(historical)).
		Float64("threshold", threshold).
		Int("anomalous", len(flagged)).
		Int("no_baseline", degraded).
		Msg("anomaly detection complete")

	if len(flagged) > 0 {
		s.report(ctx, sensor, flagged, threshold)
	}
	return results, nil
}

func (s *AnomalyService) report(ctx context.Context, sensor domain.Sensor, flagged []domain.AnomalyResult, threshold float64) {
	for _, r := range flagged {
		if err := s.alerts.Record(ctx, sensor, r, threshold); err != nil {
			s.log.Warn().Err(err).Str("sensor", sensor.ID).Msg("record alert failed")
		}
	}
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAnomalies(ctx, sensor, flagged); err != nil {
		s.log.Warn().Err(err).Str("sensor", sensor.ID).Msg("anomaly notification failed")
	}
}
