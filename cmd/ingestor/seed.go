package main

import (
	"context"
	"fmt"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/service"
)

type seedTarget interface {
	UpsertSensor(ctx context.Context, s domain.Sensor) error
	service.AlertStore
}

type fleet interface {
	ListSensors(ctx context.Context) ([]domain.Sensor, error)
	ListAlerts(ctx context.Context, severity string) ([]domain.Alert, error)
}

// seed registers the simulated fleet so published readings resolve. Its
// alerts are copied only into an empty alerts table, so restarts do not
// duplicate them. It returns the number of sensors and alerts written.
func seed(ctx context.Context, dst seedTarget, src fleet) (int, int, error) {
	sensors, err := src.ListSensors(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list fleet sensors: %w", err)
	}
	for _, s := range sensors {
		if err := dst.UpsertSensor(ctx, s); err != nil {
			return 0, 0, fmt.Errorf("upsert sensor %s: %w", s.ID, err)
		}
	}

	existing, err := dst.ListAlerts(ctx, "")
	if err != nil {
		return len(sensors), 0, fmt.Errorf("list alerts: %w", err)
	}
	if len(existing) > 0 {
		return len(sensors), 0, nil
	}
	alerts, err := src.ListAlerts(ctx, "")
	if err != nil {
		return len(sensors), 0, fmt.Errorf("list fleet alerts: %w", err)
	}
	for _, a := range alerts {
		if err := dst.CreateAlert(ctx, a); err != nil {
			return len(sensors), 0, fmt.Errorf("create alert %s: %w", a.ID, err)
		}
	}
	return len(sensors), len(alerts), nil
}
