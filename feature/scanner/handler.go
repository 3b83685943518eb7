package scanner

import (
	"snapshot-catalog/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the discovery scanner.
type Handler struct {
	scheduler *Scheduler
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(scheduler *Scheduler, log *zap.Logger) *Handler {
	return &Handler{scheduler: scheduler, logger: log}
}

// RegisterRoutes registers the scanner routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/scanner")
	group.Post("/scan", h.HandleScanNow)
	group.Post("/start", h.HandleStart)
	group.Post("/stop", h.HandleStop)
	group.Get("/status", h.HandleStatus)
}

// HandleScanNow triggers a single manual reconciliation pass.
// Per-directory failures come back inside the result's errors list; only a
// whole-pass failure produces a 500.
func (h *Handler) HandleScanNow(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	l.Info("Manual scan triggered")

	result, err := h.scheduler.ScanNow(c.Context())
	if err != nil {
		l.Error("Manual scan failed", zap.Error(err))
		resp := fiber.Map{"error": err.Error()}
		if result != nil {
			resp["result"] = result
		}
		return c.Status(fiber.StatusInternalServerError).JSON(resp)
	}

	return c.JSON(result)
}

// HandleStart starts the background scan loop.
func (h *Handler) HandleStart(c *fiber.Ctx) error {
	result := h.scheduler.Start()
	if result.Status == StatusError {
		return c.Status(fiber.StatusInternalServerError).JSON(result)
	}
	return c.JSON(result)
}

// HandleStop stops the background scan loop.
func (h *Handler) HandleStop(c *fiber.Ctx) error {
	return c.JSON(h.scheduler.Stop())
}

// HandleStatus reports whether the background loop is running.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"running": h.scheduler.IsRunning()})
}
