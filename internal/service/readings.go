package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/analytics"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

// ReadingMessage is the MQTT payload published by field sensors and the simulator.
type ReadingMessage struct {
	SensorID  string    `json:"sensor_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

type ReadingService struct {
	store     ReadingStore
	writer    ReadingWriter
	maxWindow int
	log       zerolog.Logger
}

// FromMQTT decodes a reading message, labels it with the sensor's type and
// name, and persists it.
func (s *ReadingService) FromMQTT(ctx context.Context, topic string, payload []byte) error {
	if s.writer == nil {
		return errors.New("no reading writer configured")
	}
	var msg ReadingMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode %s payload: %w", topic, err)
	}
	if msg.SensorID == "" {
		return fmt.Errorf("%s payload without sensor_id: %w", topic, ErrInvalidRequest)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	sensor, err := s.store.Sensor(ctx, msg.SensorID)
	if err != nil {
		return fmt.Errorf("lookup sensor: %w", err)
	}
	r := domain.Reading{
		SensorID:   sensor.ID,
		Timestamp:  msg.Timestamp.UTC(),
		Value:      msg.Value,
		Unit:       domain.ProfileFor(sensor.Type).Unit,
		SensorType: sensor.Type,
		Location:   sensor.Name,
	}
	if err := s.writer.InsertReading(ctx, r); err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	s.log.Debug().Str("sensor", r.SensorID).Float64("value", r.Value).Msg("reading stored")
	return nil
}

// Window returns the recent or historical readings of one sensor.
func (s *ReadingService) Window(ctx context.Context, sensorID, window string, count int) ([]domain.Reading, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive: %w", ErrInvalidRequest)
	}
	if count > s.maxWindow {
		return nil, fmt.Errorf("count must not exceed %d: %w", s.maxWindow, ErrInvalidRequest)
	}
	if _, err := s.store.Sensor(ctx, sensorID); err != nil {
		return nil, err
	}
	switch window {
	case analytics.RecentWindow:
		return s.store.FetchRecent(ctx, sensorID, count)
	case analytics.HistoricalWindow:
		return s.store.FetchHistorical(ctx, sensorID, count)
	default:
		return nil, fmt.Errorf("unknown window %q: %w", window, ErrInvalidRequest)
	}
}
