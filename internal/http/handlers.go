package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/analytics"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/domain"
	"github.com/ANIKETSHETTY47/city-sensor-monitoring/internal/service"
)

// Defaults fill in omitted anomaly request fields.
type Defaults struct {
	RecentCount     int
	HistoricalCount int
	Threshold       float64
}

type anomalyRequest struct {
	RecentCount     int      `json:"recentCount"`
	HistoricalCount int      `json:"historicalCount"`
	Threshold       *float64 `json:"threshold"`
}

func Register(app *fiber.App, svcs *service.Services, d Defaults) {
	g := app.Group("/")

	g.Get("sensors", func(c *fiber.Ctx) error {
		items, err := svcs.Store.ListSensors(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(items)
	})

	g.Get("sensors/:id", func(c *fiber.Ctx) error {
		s, err := svcs.Store.Sensor(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(s)
	})

	g.Get("sensors/:id/readings", func(c *fiber.Ctx) error {
		window := c.Query("window", analytics.RecentWindow)
		count := c.QueryInt("count", d.RecentCount)
		items, err := svcs.Readings.Window(c.UserContext(), c.Params("id"), window, count)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(items)
	})

	g.Post("sensors/:id/anomalies", func(c *fiber.Ctx) error {
		var body anomalyRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body: " + err.Error()})
			}
		}
		if body.RecentCount == 0 {
			body.RecentCount = d.RecentCount
		}
		if body.HistoricalCount == 0 {
			body.HistoricalCount = d.HistoricalCount
		}
		threshold := d.Threshold
		if body.Threshold != nil {
			threshold = *body.Threshold
		}

		items, err := svcs.Anomalies.DetectAnomalies(c.UserContext(), c.Params("id"), body.RecentCount, body.HistoricalCount, threshold)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(items)
	})

	g.Post("summaries", func(c *fiber.Ctx) error {
		var req domain.SummaryRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body: " + err.Error()})
		}
		res, err := svcs.Summaries.SummarizeSensorData(c.UserContext(), req)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	})

	g.Get("alerts", func(c *fiber.Ctx) error {
		items, err := svcs.Alerts.List(c.UserContext(), c.Query("severity"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(items)
	})

	g.Post("alerts/:id/acknowledge", func(c *fiber.Ctx) error {
		if err := svcs.Alerts.Acknowledge(c.UserContext(), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"id": c.Params("id"), "status": domain.AlertAcknowledged})
	})

	g.Post("alerts/:id/resolve", func(c *fiber.Ctx) error {
		if err := svcs.Alerts.Resolve(c.UserContext(), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"id": c.Params("id"), "status": domain.AlertResolved})
	})
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, analytics.ErrInvalidThreshold), errors.Is(err, service.ErrInvalidRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, analytics.ErrInsufficientData), errors.Is(err, analytics.ErrNoData):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, analytics.ErrResponseShape):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
