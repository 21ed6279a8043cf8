package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/analytics"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

var ErrInvalidRequest = errors.New("invalid request")

// DefaultMaxWindow caps the readings fetched for a single window.
const DefaultMaxWindow = 10000

// ReadingStore supplies sensors and their reading windows.
type ReadingStore interface {
	ListSensors(ctx context.Context) ([]domain.Sensor, error)
	Sensor(ctx context.Context, id string) (domain.Sensor, error)
	FetchRecent(ctx context.Context, sensorID string, count int) ([]domain.Reading, error)
	FetchHistorical(ctx context.Context, sensorID string, count int) ([]domain.Reading, error)
}

// ReadingWriter persists ingested readings.
type ReadingWriter interface {
	InsertReading(ctx context.Context, r domain.Reading) error
}

type AlertStore interface {
	ListAlerts(ctx context.Context, severity string) ([]domain.Alert, error)
	CreateAlert(ctx context.Context, a domain.Alert) error
	UpdateAlertStatus(ctx context.Context, id, status string) error
}

// Notifier fans detected anomalies out to operators.
type Notifier interface {
	NotifyAnomalies(ctx context.Context, sensor domain.Sensor, anomalies []domain.AnomalyResult) error
}

// ReportArchive keeps a copy of generated summaries.
type ReportArchive interface {
	ArchiveSummary(ctx context.Context, req domain.SummaryRequest, res domain.SummaryResult) error
}

// Detector scores recent readings against historical ones.
type Detector interface {
	Detect(ctx context.Context, recent, historical []domain.Reading, threshold float64) ([]domain.AnomalyResult, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, req domain.SummaryRequest, readings []domain.Reading) (domain.SummaryResult, error)
}

// Statistical is the deterministic Detector and Summarizer.
type Statistical struct{}

func (Statistical) Detect(_ context.Context, recent, historical []domain.Reading, threshold float64) ([]domain.AnomalyResult, error) {
	return analytics.Score(recent, historical, threshold)
}

func (Statistical) Summarize(_ context.Context, req domain.SummaryRequest, readings []domain.Reading) (domain.SummaryResult, error) {
	return analytics.Summarize(req, readings)
}

type Options struct {
	Readings   ReadingStore
	Writer     ReadingWriter
	Alerts     AlertStore
	Detector   Detector
	Summarizer Summarizer
	Notifier   Notifier
	Archive    ReportArchive
	Logger     zerolog.Logger

	// Window sizes used when summaries pull readings for every matching sensor.
	RecentCount     int
	HistoricalCount int
	// Upper bound on caller-supplied window sizes.
	MaxWindow       int
}

type Services struct {
	Store     ReadingStore
	Readings  *ReadingService
	Anomalies *AnomalyService
	Summaries *SummaryService
	Alerts    *AlertService
}

func New(opts Options) *Services {
	if opts.Detector == nil {
		opts.Detector = Statistical{}
	}
	if opts.Summarizer == nil {
		opts.Summarizer = Statistical{}
	}
	if opts.RecentCount <= 0 {
		opts.RecentCount = 20
	}
	if opts.HistoricalCount <= 0 {
		opts.HistoricalCount = 200
	}
	if opts.MaxWindow <= 0 {
		opts.MaxWindow = DefaultMaxWindow
	}

	alerts := &AlertService{store: opts.Alerts, log: opts.Logger.With().Str("component", "alerts").Logger()}
	return &Services{
		Store: opts.Readings,
		Readings: &ReadingService{
			store:     opts.Readings,
			writer:    opts.Writer,
			maxWindow: opts.MaxWindow,
			log:       opts.Logger.With().Str("component", "readings").Logger(),
		},
		Anomalies: &AnomalyService{
			store:     opts.Readings,
			detector:  opts.Detector,
			alerts:    alerts,
			notifier:  opts.Notifier,
			maxWindow: opts.MaxWindow,
			log:       opts.Logger.With().Str("component", "anomalies").Logger(),
		},
		Summaries: &SummaryService{
			store:           opts.Readings,
			summarizer:      opts.Summarizer,
			archive:         opts.Archive,
			recentCount:     opts.RecentCount,
			historicalCount: opts.HistoricalCount,
			log:             opts.Logger.With().Str("component", "summaries").Logger(),
		},
		Alerts: alerts,
	}
}
