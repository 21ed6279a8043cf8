package domain

import (
	"errors"
	"time"
)

// ErrNotFound is wrapped by stores when a sensor or alert does not exist.
var ErrNotFound = errors.New("not found")

// Sensor types deployed across the city.
const (
	SensorAirQuality      = "Air Quality"
	SensorTraffic         = "Traffic"
	SensorNoiseLevel      = "Noise Level"
	SensorPublicTransport = "Public Transport"
)

// Sensor statuses.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusAlert   = "alert"
)

// Alert severities and lifecycle states.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"

	AlertNew          = "new"
	AlertAcknowledged = "acknowledged"
	AlertResolved     = "resolved"
)

type LatLng struct {
	Lat float64 `db:"lat" json:"lat"`
	Lng float64 `db:"lng" json:"lng"`
}

type Sensor struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Type     string `db:"type" json:"type"`
	Area     string `db:"area" json:"area"`
	Location LatLng `db:"location" json:"location"`
	Status   string `db:"status" json:"status"`
}

// Reading is one timestamped measurement. Location carries the sensor's
// display name, which is what readings are partitioned on.
type Reading struct {
	SensorID   string    `db:"sensor_id" json:"sensorId,omitempty"`
	Timestamp  time.Time `db:"timestamp" json:"timestamp"`
	Value      float64   `db:"value" json:"value"`
	Unit       string    `db:"unit" json:"unit,omitempty"`
	SensorType string    `db:"sensor_type" json:"sensorType"`
	Location   string    `db:"location" json:"location"`
}

type AnomalyResult struct {
	Timestamp    time.Time `json:"timestamp"`
	Value        float64   `json:"value"`
	SensorType   string    `json:"sensorType"`
	Location     string    `json:"location"`
	IsAnomalous  bool      `json:"isAnomalous"`
	AnomalyScore float64   `json:"anomalyScore"`
	Reason       string    `json:"reason"`
}

type SummaryRequest struct {
	Area       string    `json:"area"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	SensorType string    `json:"sensorType"`
}

type SummaryResult struct {
	Summary string  `json:"summary"`
	Trend   string  `json:"trend,omitempty"`
	Mean    float64 `json:"mean,omitempty"`
	Count   int     `json:"count,omitempty"`
}

type Alert struct {
	ID          string    `db:"id" json:"id"`
	SensorID    string    `db:"sensor_id" json:"sensorId"`
	SensorType  string    `db:"sensor_type" json:"sensorType"`
	Severity    string    `db:"severity" json:"severity"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
	Description string    `db:"description" json:"description"`
	Status      string    `db:"status" json:"status"`
}

// SensorProfile describes the measurement unit and expected range of a sensor type.
type SensorProfile struct {
	Unit           string
	Min            float64
	Max            float64
	AlertThreshold float64
}

// ProfileFor returns the profile of a sensor type, falling back to a generic 0-100 range.
func ProfileFor(sensorType string) SensorProfile {
	switch sensorType {
	case SensorAirQuality:
		return SensorProfile{Unit: "AQI", Min: 10, Max: 150, AlertThreshold: 100}
	case SensorTraffic:
		return SensorProfile{Unit: "veh/h", Min: 50, Max: 2000, AlertThreshold: 1800}
	case SensorNoiseLevel:
		return SensorProfile{Unit: "dB", Min: 40, Max: 110, AlertThreshold: 90}
	case SensorPublicTransport:
		return SensorProfile{Unit: "passengers", Min: 5, Max: 150, AlertThreshold: 120}
	default:
		return SensorProfile{Unit: "", Min: 0, Max: 100, AlertThreshold: 80}
	}
}
