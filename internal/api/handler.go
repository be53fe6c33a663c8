package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/surveilops/trade-curator/internal/pipeline"
	"github.com/surveilops/trade-curator/internal/store"
)

// Handler exposes the curation pipeline over HTTP.
type Handler struct {
	Logger   *zap.Logger
	Pipeline *pipeline.Pipeline
	Store    store.Store
}

// TriggerRun executes a full curation run over the configured inputs and
// returns its metrics. Structural failures map to 422; the run itself never
// fails on data quality.
func (h *Handler) TriggerRun(c *fiber.Ctx) error {
	res, err := h.Pipeline.Execute(c.Context())
	if err != nil {
		h.Logger.Error("api.run_failed", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"status": "error",
			"error":  err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "ok",
		"metrics": res.Metrics,
	})
}

// LatestRun returns the metrics of the most recent run: the in-process run
// if one happened, else whatever the store remembers.
func (h *Handler) LatestRun(c *fiber.Ctx) error {
	if m := h.Pipeline.LastMetrics(); m != nil {
		return c.JSON(m)
	}

	if h.Store != nil {
		m, err := h.Store.LatestMetrics(c.Context())
		if err == nil {
			return c.JSON(m)
		}
		h.Logger.Debug("api.latest_run_lookup_failed", zap.Error(err))
	}

	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status": "error",
		"error":  "no runs recorded",
	})
}
