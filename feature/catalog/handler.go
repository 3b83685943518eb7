package catalog

import (
	"strconv"

	"snapshot-catalog/core/logger"
	"snapshot-catalog/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the snapshot catalog.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// RegisterRoutes registers the catalog routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/snapshots")
	group.Get("/", h.HandleList)
	group.Get("/by-path/:chain/:snapshotID", h.HandleGetByPath)
	group.Get("/:id<int>", h.HandleGet)
	group.Patch("/:id<int>", h.HandleUpdate)

	app.Get("/scans", h.HandleScanHistory)
}

// HandleList lists cataloged snapshots with optional filters.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	filter := ListFilter{
		Chain:    c.Query("chain"),
		IsActive: c.QueryBool("is_active", true),
		Limit:    c.QueryInt("limit", 100),
		Offset:   c.QueryInt("offset", 0),
	}

	if v := c.Query("block_height_min"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.BlockHeightMin = &n
		}
	}
	if v := c.Query("block_height_max"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.BlockHeightMax = &n
		}
	}
	if v := c.Query("has_blobs"); v != "" {
		b := utils.ToBool(v)
		filter.HasBlobs = &b
	}
	if v := c.Query("is_complete"); v != "" {
		b := utils.ToBool(v)
		filter.IsComplete = &b
	}
	if filter.Limit < 1 || filter.Limit > 1000 {
		filter.Limit = 100
	}

	result, err := h.service.List(c.Context(), filter)
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Snapshot listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(result)
}

// HandleGet returns one snapshot by id.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid snapshot id"})
	}

	snap, err := h.service.Get(c.Context(), uint(id))
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Snapshot lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if snap == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "snapshot not found"})
	}

	return c.JSON(snap)
}

// HandleGetByPath returns one snapshot by chain and version id.
func (h *Handler) HandleGetByPath(c *fiber.Ctx) error {
	chain := c.Params("chain")
	snapshotID := c.Params("snapshotID")

	snap, err := h.service.GetByPath(c.Context(), chain, snapshotID)
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Snapshot lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if snap == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "snapshot not found"})
	}

	return c.JSON(snap)
}

// HandleUpdate applies externally supplied annotations to a snapshot.
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid snapshot id"})
	}

	var update ExternalUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	snap, err := h.service.UpdateExternal(c.Context(), uint(id), update)
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Snapshot update failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if snap == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "snapshot not found"})
	}

	return c.JSON(snap)
}

// HandleScanHistory lists recent scan runs.
func (h *Handler) HandleScanHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	runs, err := h.service.ScanHistory(c.Context(), limit, offset)
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Scan history listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"scans": runs, "count": len(runs)})
}
