// Package source provides the in-memory sensor data source used for local
// development and demos.
package source

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

const (
	RecentInterval     = time.Minute
	HistoricalInterval = time.Hour

	spikeProbability = 0.05
	maxAlerts        = 15
)

type site struct {
	area string
	loc  domain.LatLng
}

var sites = []site{
	{"Downtown", domain.LatLng{Lat: 37.7749, Lng: -122.4194}},
	{"Downtown", domain.LatLng{Lat: 37.7755, Lng: -122.4180}},
	{"Downtown", domain.LatLng{Lat: 37.7730, Lng: -122.4210}},
	{"Golden Gate Park", domain.LatLng{Lat: 37.7694, Lng: -122.4862}},
	{"Golden Gate Park", domain.LatLng{Lat: 37.7715, Lng: -122.4537}},
	{"Mission District", domain.LatLng{Lat: 37.7599, Lng: -122.4148}},
	{"Mission District", domain.LatLng{Lat: 37.7610, Lng: -122.4190}},
	{"Fisherman's Wharf", domain.LatLng{Lat: 37.8080, Lng: -122.4177}},
}

var (
	sensorTypes = []string{domain.SensorAirQuality, domain.SensorTraffic, domain.SensorNoiseLevel, domain.SensorPublicTransport}
	statuses    = []string{domain.StatusOnline, domain.StatusOffline, domain.StatusAlert}
)

// Mock generates sensors once at construction and synthesises readings on
// every fetch. The same seed and clock reproduce the same sensors and
// readings; alert ids are random.
type Mock struct {
	mu      sync.Mutex
	rng     *rand.Rand
	now     func() time.Time
	sensors []domain.Sensor
	alerts  []domain.Alert
}

// NewMock builds a data source. A nil clock uses time.Now.
func NewMock(seed uint64, now func() time.Time) *Mock {
	if now == nil {
		now = time.Now
	}
	m := &Mock{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: now,
	}
	m.sensors = m.generateSensors()
	m.alerts = m.generateAlerts()
	return m
}

func (m *Mock) generateSensors() []domain.Sensor {
	out := make([]domain.Sensor, len(sites))
	for i, s := range sites {
		typ := sensorTypes[i%len(sensorTypes)]
		out[i] = domain.Sensor{
			ID:       fmt.Sprintf("sensor-%03d", i+1),
			Name:     fmt.Sprintf("%s Sensor #%d", typ, i+1),
			Type:     typ,
			Area:     s.area,
			Location: s.loc,
			Status:   statuses[m.rng.IntN(len(statuses))],
		}
	}
	return out
}

func (m *Mock) generateAlerts() []domain.Alert {
	now := m.now()
	var out []domain.Alert
	for _, s := range m.sensors {
		if s.Status != domain.StatusAlert && m.rng.Float64() >= 0.1 {
			continue
		}
		p := domain.ProfileFor(s.Type)
		severity := domain.SeverityHigh
		if m.rng.IntN(2) == 1 {
			severity = domain.SeverityCritical
		}
		status := domain.AlertNew
		if m.rng.IntN(2) == 1 {
			status = domain.AlertAcknowledged
		}
		out = append(out, domain.Alert{
			ID:          uuid.NewString(),
			SensorID:    s.ID,
			SensorType:  s.Type,
			Severity:    severity,
			Timestamp:   now.Add(-time.Duration(m.rng.Float64() * float64(24*time.Hour))).UTC(),
			Description: fmt.Sprintf("Sensor value exceeded threshold of %g.", p.AlertThreshold),
			Status:      status,
		})
		if len(out) == maxAlerts {
			break
		}
	}
	return out
}

func (m *Mock) ListSensors(_ context.Context) ([]domain.Sensor, error) {
	return slices.Clone(m.sensors), nil
}

func (m *Mock) Sensor(_ context.Context, id string) (domain.Sensor, error) {
	for _, s := range m.sensors {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Sensor{}, fmt.Errorf("sensor %s: %w", id, domain.ErrNotFound)
}

// FetchRecent returns count readings spaced one minute apart ending now.
// Unknown sensors yield no readings.
func (m *Mock) FetchRecent(ctx context.Context, sensorID string, count int) ([]domain.Reading, error) {
	return m.fetch(ctx, sensorID, count, RecentInterval)
}

// FetchHistorical returns count readings spaced one hour apart ending now.
func (m *Mock) FetchHistorical(ctx context.Context, sensorID string, count int) ([]domain.Reading, error) {
	return m.fetch(ctx, sensorID, count, HistoricalInterval)
}

func (m *Mock) fetch(ctx context.Context, sensorID string, count int, interval time.Duration) ([]domain.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := m.Sensor(ctx, sensorID)
	if err != nil || count <= 0 {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := domain.ProfileFor(s.Type)
	now := m.now()
	out := make([]domain.Reading, count)
	for i := range out {
		var v float64
		if m.rng.Float64() < spikeProbability {
			v = p.Min + (p.Max-p.Min)*(0.8+m.rng.Float64()*0.2)
		} else {
			v = p.Min + m.rng.Float64()*(p.Max-p.Min)*0.7
		}
		out[i] = domain.Reading{
			SensorID:   s.ID,
			Timestamp:  now.Add(-interval * time.Duration(count-i)).UTC(),
			Value:      math.Round(v*100) / 100,
			Unit:       p.Unit,
			SensorType: s.Type,
			Location:   s.Name,
		}
	}
	return out, nil
}

// ListAlerts returns alerts newest first, optionally filtered by severity.
func (m *Mock) ListAlerts(_ context.Context, severity string) ([]domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Alert
	for _, a := range m.alerts {
		if severity == "" || strings.EqualFold(a.Severity, severity) {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Alert) int { return b.Timestamp.Compare(a.Timestamp) })
	return out, nil
}

func (m *Mock) CreateAlert(_ context.Context, a domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, a)
	return nil
}

func (m *Mock) UpdateAlertStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("alert %s: %w", id, domain.ErrNotFound)
}
