package health

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// checkTimeout bounds each dependency probe.
const checkTimeout = 5 * time.Second

// StorePinger reports whether the object store is reachable. Implemented by
// the scanner gateway.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the service health check.
type Handler struct {
	db     *gorm.DB
	store  StorePinger
	logger *zap.Logger
}

// NewHandler creates a health handler over the given dependencies.
func NewHandler(db *gorm.DB, store StorePinger, logger *zap.Logger) *Handler {
	return &Handler{db: db, store: store, logger: logger}
}

// RegisterRoutes registers the health route. It is meant to be registered
// ahead of the auth middleware so probes need no credentials.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.HandleHealth)
}

// HandleHealth probes the catalog database and the object store and reports
// an overall status: healthy when both respond, degraded when one does,
// unhealthy when neither.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), checkTimeout)
	defer cancel()

	dbConnected := h.checkDatabase(ctx)
	storeConnected := h.checkStore(ctx)

	status := "healthy"
	switch {
	case !dbConnected && !storeConnected:
		status = "unhealthy"
	case !dbConnected || !storeConnected:
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":            status,
		"db_connected":      dbConnected,
		"storage_connected": storeConnected,
		"timestamp":         time.Now().UTC(),
	})
}

func (h *Handler) checkDatabase(ctx context.Context) bool {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		h.logger.Error("Database health check failed", zap.Error(err))
		return false
	}
	return true
}

func (h *Handler) checkStore(ctx context.Context) bool {
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Debug("Storage health check failed", zap.Error(err))
		return false
	}
	return true
}
