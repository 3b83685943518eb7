package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"snapshot-catalog/core/utils"

	"go.uber.org/zap"
)

// Manifest object names inside a version directory.
const (
	manifestBodyName   = "manifest-body.json"
	manifestHeaderName = "manifest-header.json"
)

// ErrNoManifest marks a version directory without the required body
// manifest. Such directories are not snapshots and are skipped silently.
var ErrNoManifest = errors.New("no body manifest present")

// Manifest holds what the extractor recovered from a version directory.
// Metric fields are nil when the optional header manifest was absent or
// unreadable.
type Manifest struct {
	BodyPath   string
	HeaderPath string

	TotalSizeBytes  *int64
	TotalChunks     *int
	CompressionType *string

	// Header is the raw decoded header manifest, nil without one.
	Header map[string]any
}

// Extractor recognizes snapshot directories by their manifest objects and
// pulls optional metrics out of the header manifest.
type Extractor struct {
	gateway *Gateway
	logger  *zap.Logger
}

// NewExtractor creates a manifest extractor over the given gateway.
func NewExtractor(gateway *Gateway, logger *zap.Logger) *Extractor {
	return &Extractor{gateway: gateway, logger: logger}
}

// Extract inspects the version directory at the given prefix.
//
// The body manifest's existence gates everything: without it the directory
// is not a snapshot and ErrNoManifest is returned. Its content is never
// read. The header manifest is optional enrichment; any failure fetching or
// decoding it degrades to nil metrics and is never an error.
func (e *Extractor) Extract(ctx context.Context, versionPrefix string) (*Manifest, error) {
	bodyPath := versionPrefix + manifestBodyName

	exists, err := e.gateway.ObjectExists(ctx, bodyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check body manifest for %s: %w", versionPrefix, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNoManifest, versionPrefix)
	}

	manifest := &Manifest{
		BodyPath:   bodyPath,
		HeaderPath: versionPrefix + manifestHeaderName,
	}
	e.enrichFromHeader(ctx, manifest)

	return manifest, nil
}

// enrichFromHeader fills the metric fields from the header manifest when one
// exists and parses cleanly. Misses are tolerated silently, other failures
// are logged and swallowed.
func (e *Extractor) enrichFromHeader(ctx context.Context, manifest *Manifest) {
	data, err := e.gateway.GetObjectBytes(ctx, manifest.HeaderPath)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			e.logger.Debug("No header manifest", zap.String("path", manifest.HeaderPath))
		} else {
			e.logger.Warn("Failed to read header manifest", zap.String("path", manifest.HeaderPath), zap.Error(err))
		}
		return
	}

	var header map[string]any
	if err := json.Unmarshal(data, &header); err != nil {
		e.logger.Warn("Malformed header manifest", zap.String("path", manifest.HeaderPath), zap.Error(err))
		return
	}

	manifest.Header = header

	// Header fields are loosely typed in practice: numbers arrive as JSON
	// numbers or as strings. Zero and negative values carry no information.
	if raw, ok := header["total_size"]; ok {
		if size := utils.ToInt64(raw); size > 0 {
			manifest.TotalSizeBytes = &size
		}
	}
	if raw, ok := header["chunks"]; ok {
		if chunks := utils.ToInt(raw); chunks > 0 {
			manifest.TotalChunks = &chunks
		}
	}
	// compression.algorithm is nested; a non-object compression value yields
	// no algorithm.
	if compression, ok := header["compression"].(map[string]any); ok {
		if algo, ok := compression["algorithm"].(string); ok && algo != "" {
			manifest.CompressionType = &algo
		}
	}
}
