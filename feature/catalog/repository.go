package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snapshot-catalog/core/database"
	"snapshot-catalog/feature/catalog/models"

	"gorm.io/gorm"
)

// ErrDuplicatePath is returned by Create when another writer cataloged the
// same snapshot path first. Callers are expected to re-fetch and take the
// update path instead of treating this as a failure.
var ErrDuplicatePath = errors.New("snapshot path already cataloged")

// RunStats carries the counters accumulated during one scan pass.
type RunStats struct {
	Found    int
	Created  int
	Updated  int
	Errors   []string
	Prefixes []string
}

// ListFilter narrows a snapshot listing.
type ListFilter struct {
	Chain          string
	BlockHeightMin *int64
	BlockHeightMax *int64
	HasBlobs       *bool
	IsComplete     *bool
	IsActive       bool
	Limit          int
	Offset         int
}

// Repository is the persistence boundary for the snapshot catalog.
// It is the sole writer of Snapshot and ScanRun rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository over the given database handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the catalog tables.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&models.Snapshot{}, &models.ScanRun{})
}

// VerifySchema confirms the migrated snapshots table carries the columns the
// scanner and the API depend on. Migration drift fails startup loudly rather
// than surfacing as query errors mid-scan.
func (r *Repository) VerifySchema() error {
	columns, err := database.GetTableColumns(r.db, "snapshots")
	if err != nil {
		return fmt.Errorf("failed to inspect snapshots table: %w", err)
	}

	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[col.Field] = true
	}

	required := []string{
		"chain", "client", "network", "type",
		"snapshot_path", "snapshot_id", "manifest_body_path",
		"indexed_at", "last_updated_at", "is_active",
	}
	for _, name := range required {
		if !present[name] {
			return fmt.Errorf("snapshots table is missing column %s", name)
		}
	}
	return nil
}

// FindByPath looks up a snapshot by its natural key.
// It returns (nil, nil) when no record exists.
func (r *Repository) FindByPath(ctx context.Context, path string) (*models.Snapshot, error) {
	var snap models.Snapshot
	err := r.db.WithContext(ctx).Where("snapshot_path = ?", path).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// Create inserts a new snapshot record. A concurrent insert of the same path
// is reported as ErrDuplicatePath.
func (r *Repository) Create(ctx context.Context, snap *models.Snapshot) error {
	err := r.db.WithContext(ctx).Create(snap).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrDuplicatePath, snap.SnapshotPath)
	}
	if err != nil {
		return fmt.Errorf("failed to create snapshot %s: %w", snap.SnapshotPath, err)
	}
	return nil
}

// Update writes the full snapshot record as a single atomic row write.
func (r *Repository) Update(ctx context.Context, snap *models.Snapshot) error {
	if err := r.db.WithContext(ctx).Save(snap).Error; err != nil {
		return fmt.Errorf("failed to update snapshot %s: %w", snap.SnapshotPath, err)
	}
	return nil
}

// GetByID fetches a snapshot by primary key, (nil, nil) when absent.
func (r *Repository) GetByID(ctx context.Context, id uint) (*models.Snapshot, error) {
	var snap models.Snapshot
	err := r.db.WithContext(ctx).First(&snap, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %d: %w", id, err)
	}
	return &snap, nil
}

// GetByChainAndSnapshotID fetches a snapshot by chain plus version id,
// (nil, nil) when absent.
func (r *Repository) GetByChainAndSnapshotID(ctx context.Context, chain, snapshotID string) (*models.Snapshot, error) {
	var snap models.Snapshot
	err := r.db.WithContext(ctx).
		Where("chain = ? AND snapshot_id = ?", chain, snapshotID).
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s/%s: %w", chain, snapshotID, err)
	}
	return &snap, nil
}

// List returns snapshots matching the filter plus the total match count
// before pagination. Results are ordered by block height then index time,
// newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Snapshot, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Snapshot{})

	if filter.Chain != "" {
		query = query.Where("chain = ?", filter.Chain)
	}
	if filter.BlockHeightMin != nil {
		query = query.Where("block_height >= ?", *filter.BlockHeightMin)
	}
	if filter.BlockHeightMax != nil {
		query = query.Where("block_height <= ?", *filter.BlockHeightMax)
	}
	if filter.HasBlobs != nil {
		query = query.Where("has_blobs = ?", *filter.HasBlobs)
	}
	if filter.IsComplete != nil {
		query = query.Where("is_complete = ?", *filter.IsComplete)
	}
	query = query.Where("is_active = ?", filter.IsActive)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count snapshots: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var snaps []models.Snapshot
	err := query.
		Order("block_height DESC").
		Order("indexed_at DESC").
		Offset(filter.Offset).
		Limit(limit).
		Find(&snaps).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list snapshots: %w", err)
	}

	return snaps, total, nil
}

// OpenScanRun inserts a new, uncompleted scan run row.
func (r *Repository) OpenScanRun(ctx context.Context, scanType string) (*models.ScanRun, error) {
	run := &models.ScanRun{
		StartedAt: time.Now().UTC(),
		ScanType:  scanType,
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to open scan run: %w", err)
	}
	return run, nil
}

// CloseScanRun finalizes a scan run: stats and completion time are written
// together in one row update. The run is immutable afterward.
func (r *Repository) CloseScanRun(ctx context.Context, run *models.ScanRun, stats RunStats) error {
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.SnapshotsFound = stats.Found
	run.NewSnapshots = stats.Created
	run.UpdatedSnapshots = stats.Updated
	run.Errors = stats.Errors
	run.PrefixesScanned = stats.Prefixes
	run.DurationSeconds = now.Sub(run.StartedAt).Seconds()

	if err := r.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("failed to close scan run %d: %w", run.ID, err)
	}
	return nil
}

// ListScanRuns returns the most recent scan runs, newest first.
func (r *Repository) ListScanRuns(ctx context.Context, limit, offset int) ([]models.ScanRun, error) {
	if limit <= 0 {
		limit = 50
	}

	var runs []models.ScanRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scan runs: %w", err)
	}
	return runs, nil
}
