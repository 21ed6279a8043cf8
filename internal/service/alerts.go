package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

type AlertService struct {
	store AlertStore
	log   zerolog.Logger
}

// SeverityFor grades an anomaly: scores beyond twice the threshold are critical.
func SeverityFor(score, threshold float64) string {
	if score > 2*threshold {
		return domain.SeverityCritical
	}
	return domain.SeverityHigh
}

// Record stores an alert for a flagged anomaly. It is a no-op without a store.
func (s *AlertService) Record(ctx context.Context, sensor domain.Sensor, r domain.AnomalyResult, threshold float64) error {
	if s.store == nil {
		return nil
	}
	a := domain.Alert{
		ID:          uuid.NewString(),
		SensorID:    sensor.ID,
		SensorType:  sensor.Type,
		Severity:    SeverityFor(r.AnomalyScore, threshold),
		Timestamp:   r.Timestamp,
		Description: r.Reason,
		Status:      domain.AlertNew,
	}
	if err := s.store.CreateAlert(ctx, a); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	s.log.Debug().Str("alert", a.ID).Str("severity", a.Severity).Msg("alert recorded")
	return nil
}

func (s *AlertService) List(ctx context.Context, severity string) ([]domain.Alert, error) {
	if s.store == nil {
		return []domain.Alert{}, nil
	}
	severity = strings.ToLower(strings.TrimSpace(severity))
	switch severity {
	case "", domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh, domain.SeverityCritical:
	default:
		return nil, fmt.Errorf("unknown severity %q: %w", severity, ErrInvalidRequest)
	}
	return s.store.ListAlerts(ctx, severity)
}

func (s *AlertService) Acknowledge(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, domain.AlertAcknowledged)
}

func (s *AlertService) Resolve(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, domain.AlertResolved)
}

func (s *AlertService) setStatus(ctx context.Context, id, status string) error {
	if s.store == nil {
		return fmt.Errorf("alert %s: %w", id, domain.ErrNotFound)
	}
	if err := s.store.UpdateAlertStatus(ctx, id, status); err != nil {
		return err
	}
	s.log.Info().Str("alert", id).Str("status", status).Msg("alert updated")
	return nil
}
