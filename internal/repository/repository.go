package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
)

// Schema creates the tables used by Repos.
const Schema = `
CREATE TABLE IF NOT EXISTS sensors (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL,
	type   TEXT NOT NULL,
	area   TEXT NOT NULL,
	lat    DOUBLE PRECISION NOT NULL,
	lng    DOUBLE PRECISION NOT NULL,
	status TEXT NOT NULL DEFAULT 'online'
);
CREATE TABLE IF NOT EXISTS readings (
	id          BIGSERIAL PRIMARY KEY,
	sensor_id   TEXT NOT NULL REFERENCES sensors(id),
	timestamp   TIMESTAMPTZ NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	unit        TEXT NOT NULL DEFAULT '',
	sensor_type TEXT NOT NULL,
	location    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS readings_sensor_ts ON readings (sensor_id, timestamp DESC);
CREATE TABLE IF NOT EXISTS alerts (
	id          TEXT PRIMARY KEY,
	sensor_id   TEXT NOT NULL,
	sensor_type TEXT NOT NULL,
	severity    TEXT NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL,
	description TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'new'
);`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var sensorColumns = []string{"id", "name", "type", "area", `lat AS "location.lat"`, `lng AS "location.lng"`, "status"}

// Repos is the Postgres reading store. Readings newer than now-horizon form
// the recent window; older ones the historical window.
type Repos struct {
	db      *sqlx.DB
	horizon time.Duration
	now     func() time.Time
}

func New(db *sqlx.DB, horizon time.Duration) *Repos {
	return &Repos{db: db, horizon: horizon, now: time.Now}
}

func (r *Repos) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, Schema)
	return err
}

func (r *Repos) ListSensors(ctx context.Context) ([]domain.Sensor, error) {
	query, args, err := psql.Select(sensorColumns...).From("sensors").OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	var out []domain.Sensor
	err = r.db.SelectContext(ctx, &out, query, args...)
	return out, err
}

func (r *Repos) Sensor(ctx context.Context, id string) (domain.Sensor, error) {
	query, args, err := psql.Select(sensorColumns...).From("sensors").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Sensor{}, err
	}
	var s domain.Sensor
	err = r.db.GetContext(ctx, &s, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sensor{}, fmt.Errorf("sensor %s: %w", id, domain.ErrNotFound)
	}
	return s, err
}

func (r *Repos) UpsertSensor(ctx context.Context, s domain.Sensor) error {
	query, args, err := psql.Insert("sensors").
		Columns("id", "name", "type", "area", "lat", "lng", "status").
		Values(s.ID, s.Name, s.Type, s.Area, s.Location.Lat, s.Location.Lng, s.Status).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, type = EXCLUDED.type, area = EXCLUDED.area, lat = EXCLUDED.lat, lng = EXCLUDED.lng, status = EXCLUDED.status").
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *Repos) FetchRecent(ctx context.Context, sensorID string, count int) ([]domain.Reading, error) {
	return r.window(ctx, recentQuery(sensorID, r.now().Add(-r.horizon), count))
}

func (r *Repos) FetchHistorical(ctx context.Context, sensorID string, count int) ([]domain.Reading, error) {
	return r.window(ctx, historicalQuery(sensorID, r.now().Add(-r.horizon), count))
}

func recentQuery(sensorID string, cutoff time.Time, count int) sq.SelectBuilder {
	return readingsQuery(sensorID, count).Where(sq.GtOrEq{"timestamp": cutoff})
}

func historicalQuery(sensorID string, cutoff time.Time, count int) sq.SelectBuilder {
	return readingsQuery(sensorID, count).Where(sq.Lt{"timestamp": cutoff})
}

func readingsQuery(sensorID string, count int) sq.SelectBuilder {
	return psql.Select("sensor_id", "timestamp", "value", "unit", "sensor_type", "location").
		From("readings").
		Where(sq.Eq{"sensor_id": sensorID}).
		OrderBy("timestamp DESC").
		Limit(uint64(max(count, 0)))
}

// window runs a newest-first query and returns the rows oldest first.
func (r *Repos) window(ctx context.Context, b sq.SelectBuilder) ([]domain.Reading, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	var out []domain.Reading
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select readings: %w", err)
	}
	slices.Reverse(out)
	return out, nil
}

func (r *Repos) InsertReading(ctx context.Context, rd domain.Reading) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO readings(sensor_id, timestamp, value, unit, sensor_type, location)
		 VALUES (:sensor_id, :timestamp, :value, :unit, :sensor_type, :location)`, rd)
	return err
}

func (r *Repos) ListAlerts(ctx context.Context, severity string) ([]domain.Alert, error) {
	query, args, err := alertsQuery(severity).ToSql()
	if err != nil {
		return nil, err
	}
	out := []domain.Alert{}
	err = r.db.SelectContext(ctx, &out, query, args...)
	return out, err
}

func alertsQuery(severity string) sq.SelectBuilder {
	b := psql.Select("id", "sensor_id", "sensor_type", "severity", "timestamp", "description", "status").
		From("alerts").
		OrderBy("timestamp DESC")
	if severity != "" {
		b = b.Where(sq.Eq{"severity": severity})
	}
	return b
}

func (r *Repos) CreateAlert(ctx context.Context, a domain.Alert) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO alerts(id, sensor_id, sensor_type, severity, timestamp, description, status)
		 VALUES (:id, :sensor_id, :sensor_type, :severity, :timestamp, :description, :status)`, a)
	return err
}

func (r *Repos) UpdateAlertStatus(ctx context.Context, id, status string) error {
	query, args, err := psql.Update("alerts").Set("status", status).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("alert %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
