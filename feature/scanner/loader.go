package scanner

import (
	"snapshot-catalog/core/storage"
	"snapshot-catalog/feature/catalog"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	gateway   *Gateway
	scheduler *Scheduler
	handler   *Handler
}

// NewFeature wires the scanner: gateway over the bucket, manifest extractor,
// reconciliation engine against the catalog, and the scheduler that drives
// them.
func NewFeature(client storage.Client, bucket string, repo *catalog.Repository, cfg Config, logger *zap.Logger) *Feature {
	gateway := NewGateway(client, bucket, cfg.PrefixCap)
	extractor := NewExtractor(gateway, logger)
	engine := NewEngine(gateway, extractor, repo, logger)
	scheduler := NewScheduler(engine, gateway, cfg, logger)
	handler := NewHandler(scheduler, logger)
	return &Feature{gateway: gateway, scheduler: scheduler, handler: handler}
}

// Gateway exposes the bucket gateway so collaborators (the health check)
// can probe store connectivity.
func (f *Feature) Gateway() *Gateway {
	return f.gateway
}

// Scheduler exposes the scan scheduler so the composition root can manage
// its lifecycle alongside the HTTP server.
func (f *Feature) Scheduler() *Scheduler {
	return f.scheduler
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "scanner"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
