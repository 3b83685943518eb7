package catalog

import (
	"context"
	"fmt"
	"time"

	"snapshot-catalog/feature/catalog/models"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ExternalUpdate carries the externally-owned fields a PATCH may set.
// Nil fields are left untouched; ExternalMetadata is merged key by key, not
// replaced.
type ExternalUpdate struct {
	BlockHeight      *int64         `json:"block_height"`
	HasBlobs         *bool          `json:"has_blobs"`
	BlobStartBlock   *int64         `json:"blob_start_block"`
	BlobEndBlock     *int64         `json:"blob_end_block"`
	IsComplete       *bool          `json:"is_complete"`
	IsActive         *bool          `json:"is_active"`
	ExternalMetadata map[string]any `json:"external_metadata"`
}

// ListResult is the snapshot listing payload.
type ListResult struct {
	Snapshots   []models.Snapshot `json:"snapshots"`
	Count       int64             `json:"count"`
	TotalSizeTB float64           `json:"total_size_tb"`
}

// Service exposes catalog read and annotation operations.
type Service struct {
	repo   *Repository
	logger *zap.Logger
}

// NewService creates a new catalog service.
func NewService(repo *Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns snapshots matching the filter along with the total match
// count and the summed size of the returned page in terabytes.
func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	snaps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	var sizeBytes int64
	for _, snap := range snaps {
		if snap.TotalSizeBytes != nil {
			sizeBytes += *snap.TotalSizeBytes
		}
	}

	const tb = 1 << 40
	return &ListResult{
		Snapshots:   snaps,
		Count:       total,
		TotalSizeTB: float64(sizeBytes) / tb,
	}, nil
}

// Get fetches a snapshot by id, (nil, nil) when absent.
func (s *Service) Get(ctx context.Context, id uint) (*models.Snapshot, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByPath fetches a snapshot by chain and version id, (nil, nil) when absent.
func (s *Service) GetByPath(ctx context.Context, chain, snapshotID string) (*models.Snapshot, error) {
	return s.repo.GetByChainAndSnapshotID(ctx, chain, snapshotID)
}

// UpdateExternal applies externally supplied annotations to a snapshot.
// Only externally-owned fields are written; the scanner-owned manifest
// metrics are out of reach here. Returns (nil, nil) when the snapshot does
// not exist.
func (s *Service) UpdateExternal(ctx context.Context, id uint, update ExternalUpdate) (*models.Snapshot, error) {
	snap, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, nil
	}

	if update.BlockHeight != nil {
		snap.BlockHeight = update.BlockHeight
	}
	if update.HasBlobs != nil {
		snap.HasBlobs = update.HasBlobs
	}
	if update.BlobStartBlock != nil {
		snap.BlobStartBlock = update.BlobStartBlock
	}
	if update.BlobEndBlock != nil {
		snap.BlobEndBlock = update.BlobEndBlock
	}
	if update.IsComplete != nil {
		snap.IsComplete = update.IsComplete
	}
	if update.IsActive != nil {
		snap.IsActive = *update.IsActive
	}

	// Merge, never replace: keys absent from the request survive.
	if len(update.ExternalMetadata) > 0 {
		if snap.ExternalMetadata == nil {
			snap.ExternalMetadata = datatypes.JSONMap{}
		}
		for k, v := range update.ExternalMetadata {
			snap.ExternalMetadata[k] = v
		}
	}

	snap.LastUpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to apply external update to snapshot %d: %w", id, err)
	}

	s.logger.Info("Applied external snapshot update",
		zap.Uint("id", id),
		zap.String("path", snap.SnapshotPath),
	)
	return snap, nil
}

// ScanHistory returns recent scan runs, newest first.
func (s *Service) ScanHistory(ctx context.Context, limit, offset int) ([]models.ScanRun, error) {
	return s.repo.ListScanRuns(ctx, limit, offset)
}
