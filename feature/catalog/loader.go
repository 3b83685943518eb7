package catalog

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	repo    *Repository
	service *Service
	handler *Handler
}

// NewFeature creates the catalog feature.
func NewFeature(db *gorm.DB, logger *zap.Logger) *Feature {
	repo := NewRepository(db)
	svc := NewService(repo, logger)
	h := NewHandler(svc, logger)
	return &Feature{repo: repo, service: svc, handler: h}
}

// Repository exposes the catalog repository for collaborators (the scanner
// engine reconciles against it).
func (f *Feature) Repository() *Repository {
	return f.repo
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "catalog"
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
