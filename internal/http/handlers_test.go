package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/service"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/source"
)

var now = time.Date(2026, 7, 1, 15, 0, 0, 0, time.UTC)

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	mock := source.NewMock(42, func() time.Time { return now })
	svcs := service.New(service.Options{Readings: mock, Alerts: mock, Logger: zerolog.Nop()})
	app := fiber.New()
	app.Use(recover.New())
	app.Use(RequestLogger(zerolog.Nop()))
	Register(app, svcs, Defaults{RecentCount: 20, HistoricalCount: 200, Threshold: 2.5})
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw
}

func TestSensorsEndpoints(t *testing.T) {
	t.Parallel()
	app := newApp(t)

	code, raw := do(t, app, "GET", "/sensors", "")
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", code, raw)
	}
	var sensors []domain.Sensor
	if err := json.Unmarshal(raw, &sensors); err != nil || len(sensors) != 8 {
		t.Fatalf("expected 8 sensors, got %d (%v)", len(sensors), err)
	}

	if code, _ := do(t, app, "GET", "/sensors/sensor-001", ""); code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code, _ := do(t, app, "GET", "/sensors/sensor-999", ""); code != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}

	code, raw = do(t, app, "GET", "/sensors/sensor-002/readings?window=historical&count=5", "")
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", code, raw)
	}
	var readings []domain.Reading
	if err := json.Unmarshal(raw, &readings); err != nil || len(readings) != 5 {
		t.Fatalf("expected 5 readings, got %d (%v)", len(readings), err)
	}
	if code, _ := do(t, app, "GET", "/sensors/sensor-002/readings?window=monthly", ""); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for unknown window, got %d", code)
	}
	if code, _ := do(t, app, "GET", "/sensors/sensor-002/readings?count=4611686018427387904", ""); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for oversized count, got %d", code)
	}
}

func TestAnomaliesEndpoint(t *testing.T) {
	t.Parallel()
	app := newApp(t)

	code, raw := do(t, app, "POST", "/sensors/sensor-003/anomalies", `{"recentCount":10,"historicalCount":50,"threshold":2}`)
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", code, raw)
	}
	var results []domain.AnomalyResult
	if err := json.Unmarshal(raw, &results); err != nil || len(results) != 10 {
		t.Fatalf("expected 10 results, got %d (%v)", len(results), err)
	}
	for _, r := range results {
		if r.IsAnomalous != (r.AnomalyScore > 2) {
			t.Fatalf("flag/score mismatch %+v", r)
		}
	}

	code, raw = do(t, app, "POST", "/sensors/sensor-003/anomalies", "")
	if code != fiber.StatusOK {
		t.Fatalf("expected defaults to apply, got %d: %s", code, raw)
	}
	if err := json.Unmarshal(raw, &results); err != nil || len(results) != 20 {
		t.Fatalf("expected 20 results, got %d (%v)", len(results), err)
	}

	if code, _ := do(t, app, "POST", "/sensors/sensor-003/anomalies", `{"threshold":0}`); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for zero threshold, got %d", code)
	}
	if code, _ := do(t, app, "POST", "/sensors/sensor-001/anomalies", `{"recentCount":4611686018427387904}`); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for oversized recent window, got %d", code)
	}
	if code, _ := do(t, app, "POST", "/sensors/sensor-001/anomalies", `{"historicalCount":10001}`); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for oversized historical window, got %d", code)
	}
	if code, _ := do(t, app, "POST", "/sensors/sensor-404/anomalies", ""); code != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestSummariesEndpoint(t *testing.T) {
	t.Parallel()
	app := newApp(t)

	body := `{"area":"Downtown","sensorType":"Air Quality","startTime":"2026-06-01T00:00:00Z","endTime":"2026-07-02T00:00:00Z"}`
	code, raw := do(t, app, "POST", "/summaries", body)
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", code, raw)
	}
	var res domain.SummaryResult
	if err := json.Unmarshal(raw, &res); err != nil || !strings.Contains(res.Summary, "Downtown") || res.Count == 0 {
		t.Fatalf("unexpected summary %s (%v)", raw, err)
	}

	body = `{"area":"Downtown","sensorType":"Air Quality","startTime":"2020-01-01T00:00:00Z","endTime":"2020-01-02T00:00:00Z"}`
	if code, _ := do(t, app, "POST", "/summaries", body); code != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty range, got %d", code)
	}
	if code, _ := do(t, app, "POST", "/summaries", `{"area":"Downtown"`); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", code)
	}
}

func TestAlertsEndpoints(t *testing.T) {
	t.Parallel()
	app := newApp(t)

	if code, _ := do(t, app, "GET", "/alerts?severity=bogus", ""); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	code, raw := do(t, app, "GET", "/alerts", "")
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var alerts []domain.Alert
	if err := json.Unmarshal(raw, &alerts); err != nil {
		t.Fatalf("decode alerts: %v", err)
	}
	if code, _ := do(t, app, "POST", "/alerts/missing/acknowledge", ""); code != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if len(alerts) > 0 {
		if code, _ := do(t, app, "POST", "/alerts/"+alerts[0].ID+"/resolve", ""); code != fiber.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	if got := statusFor(io.EOF); got != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got)
	}
}
