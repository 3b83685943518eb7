package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"snapshot-catalog/feature/catalog"
	"snapshot-catalog/feature/catalog/models"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// CatalogStore is the slice of the catalog repository the engine reconciles
// against.
type CatalogStore interface {
	FindByPath(ctx context.Context, path string) (*models.Snapshot, error)
	Create(ctx context.Context, snap *models.Snapshot) error
	Update(ctx context.Context, snap *models.Snapshot) error
	OpenScanRun(ctx context.Context, scanType string) (*models.ScanRun, error)
	CloseScanRun(ctx context.Context, run *models.ScanRun, stats catalog.RunStats) error
}

// RunResult is the outcome of one reconciliation pass.
type RunResult struct {
	Status           string    `json:"status"`
	ScanType         string    `json:"scan_type"`
	SnapshotsFound   int       `json:"snapshots_found"`
	NewSnapshots     int       `json:"new_snapshots"`
	UpdatedSnapshots int       `json:"updated_snapshots"`
	ChainsScanned    int       `json:"chains_scanned"`
	Errors           []string  `json:"errors"`
	DurationSeconds  float64   `json:"duration_seconds"`
	Timestamp        time.Time `json:"timestamp"`
}

// Engine performs one reconciliation pass: it walks the two-level prefix
// tree, recognizes snapshot directories by their manifests, and upserts
// catalog records. It is safe to run concurrently with itself; creation
// races on the natural key resolve through the catalog's uniqueness
// constraint.
type Engine struct {
	gateway   *Gateway
	extractor *Extractor
	store     CatalogStore
	logger    *zap.Logger
}

// NewEngine creates a reconciliation engine.
func NewEngine(gateway *Gateway, extractor *Extractor, store CatalogStore, logger *zap.Logger) *Engine {
	return &Engine{
		gateway:   gateway,
		extractor: extractor,
		store:     store,
		logger:    logger,
	}
}

// RunOnce executes a single reconciliation pass.
//
// Per-directory failures are collected into the result's error list and do
// not interrupt the pass. A traversal-level failure (the prefix listings
// themselves) aborts the pass and is returned as an error; the ScanRun is
// closed with partial counts either way, exactly once.
func (e *Engine) RunOnce(ctx context.Context, scanType string) (*RunResult, error) {
	start := time.Now().UTC()

	run, err := e.store.OpenScanRun(ctx, scanType)
	if err != nil {
		return nil, fmt.Errorf("failed to open scan run: %w", err)
	}

	e.logger.Info("Starting snapshot scan",
		zap.String("scan_type", scanType),
		zap.String("bucket", e.gateway.Bucket()),
	)

	stats := catalog.RunStats{Errors: []string{}, Prefixes: []string{}}
	defer func() {
		// The pass context may already be cancelled (scheduler shutdown);
		// the run must be closed regardless.
		closeCtx := context.WithoutCancel(ctx)
		if closeErr := e.store.CloseScanRun(closeCtx, run, stats); closeErr != nil {
			e.logger.Error("Failed to close scan run", zap.Uint("run_id", run.ID), zap.Error(closeErr))
		}
	}()

	fatal := e.walk(ctx, &stats)

	status := "completed"
	if fatal != nil {
		status = "error"
		stats.Errors = append(stats.Errors, fmt.Sprintf("fatal error: %v", fatal))
		e.logger.Error("Scan aborted", zap.String("scan_type", scanType), zap.Error(fatal))
	}

	result := &RunResult{
		Status:           status,
		ScanType:         scanType,
		SnapshotsFound:   stats.Found,
		NewSnapshots:     stats.Created,
		UpdatedSnapshots: stats.Updated,
		ChainsScanned:    len(stats.Prefixes),
		Errors:           stats.Errors,
		DurationSeconds:  time.Since(start).Seconds(),
		Timestamp:        time.Now().UTC(),
	}

	e.logger.Info("Scan completed",
		zap.String("scan_type", scanType),
		zap.Int("found", result.SnapshotsFound),
		zap.Int("new", result.NewSnapshots),
		zap.Int("updated", result.UpdatedSnapshots),
		zap.Int("errors", len(result.Errors)),
	)

	return result, fatal
}

// walk traverses the fixed two-level prefix hierarchy. Level one enumerates
// protocol directories, level two their version directories. Deeper nesting
// is not interpreted. A listing failure at either level is fatal for the
// pass.
func (e *Engine) walk(ctx context.Context, stats *catalog.RunStats) error {
	protocolDirs, err := e.gateway.ListCommonPrefixes(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to scan bucket: %w", err)
	}

	for _, protocolDir := range protocolDirs {
		e.logger.Debug("Checking protocol directory", zap.String("prefix", protocolDir))
		stats.Prefixes = append(stats.Prefixes, strings.TrimSuffix(protocolDir, "/"))

		versionDirs, err := e.gateway.ListCommonPrefixes(ctx, protocolDir)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", protocolDir, err)
		}

		for _, versionDir := range versionDirs {
			if err := e.reconcileVersionDir(ctx, protocolDir, versionDir, stats); err != nil {
				stats.Errors = append(stats.Errors, fmt.Sprintf("error processing %s: %v", versionDir, err))
				e.logger.Error("Failed to process version directory",
					zap.String("prefix", versionDir),
					zap.Error(err),
				)
			}
		}
	}

	return nil
}

// reconcileVersionDir catalogs a single version directory. A missing body
// manifest means the directory is not a snapshot; that is a silent skip, not
// an error.
func (e *Engine) reconcileVersionDir(ctx context.Context, protocolDir, versionDir string, stats *catalog.RunStats) error {
	manifest, err := e.extractor.Extract(ctx, versionDir)
	if errors.Is(err, ErrNoManifest) {
		e.logger.Debug("No body manifest, skipping", zap.String("prefix", versionDir))
		return nil
	}
	if err != nil {
		return err
	}

	path := strings.TrimSuffix(versionDir, "/")

	existing, err := e.store.FindByPath(ctx, path)
	if err != nil {
		return err
	}

	if existing == nil {
		created, err := e.createRecord(ctx, protocolDir, path, manifest)
		if err != nil {
			return err
		}
		if created {
			stats.Created++
			stats.Found++
			return nil
		}
		// Lost the creation race: another pass cataloged the path first.
		// Re-fetch and fall through to the update path.
		existing, err = e.store.FindByPath(ctx, path)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("snapshot %s vanished after duplicate insert", path)
		}
	}

	if e.applyMetrics(existing, manifest) {
		existing.LastUpdatedAt = time.Now().UTC()
		if err := e.store.Update(ctx, existing); err != nil {
			return err
		}
		stats.Updated++
		e.logger.Info("Updated snapshot", zap.String("path", path))
	}

	stats.Found++
	return nil
}

// createRecord inserts a new catalog record for the version directory.
// It returns false without error when a concurrent pass won the insert.
func (e *Engine) createRecord(ctx context.Context, protocolDir, path string, manifest *Manifest) (bool, error) {
	attrs := ParseProtocolDir(protocolDir)

	segments := strings.Split(path, "/")
	snapshotID := segments[len(segments)-1]

	now := time.Now().UTC()
	snap := &models.Snapshot{
		Chain:            attrs.Chain,
		Client:           attrs.Client,
		Network:          attrs.Network,
		Type:             attrs.Type,
		SnapshotPath:     path,
		SnapshotID:       snapshotID,
		ManifestBodyPath: manifest.BodyPath,
		TotalSizeBytes:   manifest.TotalSizeBytes,
		TotalChunks:      manifest.TotalChunks,
		CompressionType:  manifest.CompressionType,
		IndexedAt:        now,
		LastUpdatedAt:    now,
		IsActive:         true,
	}
	if manifest.Header != nil {
		headerPath := manifest.HeaderPath
		snap.ManifestHeaderPath = &headerPath
		snap.SnapshotMetadata = datatypes.JSONMap(manifest.Header)
	}

	err := e.store.Create(ctx, snap)
	if errors.Is(err, catalog.ErrDuplicatePath) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	e.logger.Info("Found new snapshot", zap.String("path", path), zap.String("chain", attrs.Chain))
	return true, nil
}

// applyMetrics copies changed manifest metrics onto the record and reports
// whether anything changed. Only non-null incoming values overwrite; the
// structural attributes and externally-owned fields are never touched here.
func (e *Engine) applyMetrics(snap *models.Snapshot, manifest *Manifest) bool {
	changed := false

	if manifest.TotalSizeBytes != nil && !int64PtrEqual(snap.TotalSizeBytes, manifest.TotalSizeBytes) {
		snap.TotalSizeBytes = manifest.TotalSizeBytes
		changed = true
	}
	if manifest.TotalChunks != nil && !intPtrEqual(snap.TotalChunks, manifest.TotalChunks) {
		snap.TotalChunks = manifest.TotalChunks
		changed = true
	}
	if manifest.CompressionType != nil && !stringPtrEqual(snap.CompressionType, manifest.CompressionType) {
		snap.CompressionType = manifest.CompressionType
		changed = true
	}

	if changed && manifest.Header != nil {
		snap.SnapshotMetadata = datatypes.JSONMap(manifest.Header)
		if snap.ManifestHeaderPath == nil {
			headerPath := manifest.HeaderPath
			snap.ManifestHeaderPath = &headerPath
		}
	}

	return changed
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
