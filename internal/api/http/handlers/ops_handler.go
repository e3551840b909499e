package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transfer-service/internal/observability"
)

type sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// OpsHandler serves operational endpoints.
type OpsHandler struct {
	metrics   *observability.Metrics
	scheduler sweeper
}

// NewOpsHandler constructs handler.
func NewOpsHandler(metrics *observability.Metrics, scheduler sweeper) *OpsHandler {
	return &OpsHandler{metrics: metrics, scheduler: scheduler}
}

// Metrics GET /metrics.
func (h *OpsHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}

// RunCompletionSweep POST /api/v1/admin/completion-sweep.
func (h *OpsHandler) RunCompletionSweep(c *fiber.Ctx) error {
	completed, err := h.scheduler.Sweep(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"completed": completed}})
}
