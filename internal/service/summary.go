package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/analytics"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

const maxConcurrentFetches = 4

type SummaryService struct {
	store           ReadingStore
	summarizer      Summarizer
	archive         ReportArchive
	recentCount     int
	historicalCount int
	log             zerolog.Logger
}

// SummarizeSensorData summarises the readings of every sensor of
// req.SensorType in req.Area. An empty area covers the whole city.
func (s *SummaryService) SummarizeSensorData(ctx context.Context, req domain.SummaryRequest) (domain.SummaryResult, error) {
	req.Area = strings.TrimSpace(req.Area)
	if req.SensorType == "" {
		return domain.SummaryResult{}, fmt.Errorf("sensor type is required: %w", ErrInvalidRequest)
	}
	if !req.EndTime.After(req.StartTime) {
		return domain.SummaryResult{}, fmt.Errorf("end time must be after start time: %w", ErrInvalidRequest)
	}

	readings, err := s.collect(ctx, req)
	if err != nil {
		return domain.SummaryResult{}, err
	}
	if len(readings) == 0 {
		return domain.SummaryResult{}, &analytics.NoDataError{
			Area: req.Area, SensorType: req.SensorType, Start: req.StartTime, End: req.EndTime,
		}
	}

	res, err := s.summarizer.Summarize(ctx, req, readings)
	if err != nil {
		return domain.SummaryResult{}, fmt.Errorf("summarize %s readings in %q: %w", req.SensorType, req.Area, err)
	}
	if strings.TrimSpace(res.Summary) == "" {
		return domain.SummaryResult{}, &analytics.ResponseShapeError{Index: -1, Detail: "empty summary"}
	}

	if s.archive != nil {
		if err := s.archive.ArchiveSummary(ctx, req, res); err != nil {
			s.log.Warn().Err(err).Msg("archive summary failed")
		}
	}
	s.log.Info().Str("area", req.Area).Str("sensor_type", req.SensorType).Int("readings", len(readings)).Str("trend", res.Trend).Msg("summary generated")
	return res, nil
}

// collect pulls both windows for every matching sensor. Per-sensor slices are
// concatenated in sensor order.
func (s *SummaryService) collect(ctx context.Context, req domain.SummaryRequest) ([]domain.Reading, error) {
	sensors, err := s.store.ListSensors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sensors: %w", err)
	}
	var matched []domain.Sensor
	for _, sn := range sensors {
		if sn.Type != req.SensorType {
			continue
		}
		if req.Area != "" && !strings.EqualFold(sn.Area, req.Area) {
			continue
		}
		matched = append(matched, sn)
	}

	perSensor := make([][]domain.Reading, len(matched))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, sn := range matched {
		g.Go(func() error {
			historical, err := s.store.FetchHistorical(gctx, sn.ID, s.historicalCount)
			if err != nil {
				return fmt.Errorf("fetch historical readings for %s: %w", sn.ID, err)
			}
			recent, err := s.store.FetchRecent(gctx, sn.ID, s.recentCount)
			if err != nil {
				return fmt.Errorf("fetch recent readings for %s: %w", sn.ID, err)
			}
			perSensor[i] = append(historical, recent...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.Reading
	for _, rs := range perSensor {
		out = append(out, rs...)
	}
	return out, nil
}
