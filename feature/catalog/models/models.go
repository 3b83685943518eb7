package models

import (
	"time"

	"gorm.io/datatypes"
)

// Scan trigger kinds recorded on a ScanRun.
const (
	ScanTypeScheduled = "scheduled"
	ScanTypeManual    = "manual"
)

// Snapshot is the catalog entry for one snapshot version directory
// discovered in the object store.
//
// The discovery scanner owns the manifest-derived fields (TotalSizeBytes,
// TotalChunks, CompressionType, SnapshotMetadata). The externally-owned
// fields (BlockHeight, HasBlobs, blob range, IsComplete, ExternalMetadata)
// are only ever written through the PATCH endpoint and are never touched by
// a scan.
type Snapshot struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Attributes parsed from the protocol directory name.
	Chain   string `gorm:"not null;index:idx_chain_active,priority:1;index:idx_chain_height,priority:1" json:"chain"`
	Client  string `gorm:"not null;index" json:"client"`
	Network string `gorm:"not null;index" json:"network"`
	Type    string `gorm:"not null;index" json:"type"`

	// SnapshotPath is the natural key: the version directory path with the
	// trailing separator stripped.
	SnapshotPath string `gorm:"not null;uniqueIndex" json:"snapshot_path"`
	// SnapshotID is the version directory's leaf name (e.g. "1", "2").
	SnapshotID string `gorm:"not null" json:"snapshot_id"`

	// Manifest object paths.
	ManifestBodyPath   string  `gorm:"not null" json:"manifest_body_path"`
	ManifestHeaderPath *string `json:"manifest_header_path"`

	// Metrics sourced from the header manifest, null when no header exists.
	TotalSizeBytes  *int64  `json:"total_size_bytes"`
	TotalChunks     *int    `json:"total_chunks"`
	CompressionType *string `json:"compression_type"`

	// Externally supplied attributes.
	BlockHeight    *int64 `gorm:"index:idx_chain_height,priority:2" json:"block_height"`
	HasBlobs       *bool  `json:"has_blobs"`
	BlobStartBlock *int64 `json:"blob_start_block"`
	BlobEndBlock   *int64 `json:"blob_end_block"`

	// SnapshotMetadata is the raw header manifest content.
	SnapshotMetadata datatypes.JSONMap `json:"snapshot_metadata"`
	// ExternalMetadata is merged from PATCH requests, never overwritten by scans.
	ExternalMetadata datatypes.JSONMap `json:"external_metadata"`

	IndexedAt     time.Time `gorm:"not null" json:"indexed_at"`
	LastUpdatedAt time.Time `gorm:"not null" json:"last_updated_at"`

	// No column default here: a default tag makes GORM omit the zero value
	// on insert, so a record created inactive would come back active.
	// Writers always set the field explicitly.
	IsActive   bool  `gorm:"not null;index:idx_chain_active,priority:2" json:"is_active"`
	IsComplete *bool `json:"is_complete"`
}

// ScanRun records one execution of the discovery scan, scheduled or manual.
// It is opened when a pass starts and closed exactly once when it ends,
// whether the pass succeeded or aborted on a traversal failure.
type ScanRun struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StartedAt   time.Time  `gorm:"not null;index" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	ScanType    string     `gorm:"not null" json:"scan_type"`

	SnapshotsFound   int `gorm:"not null;default:0" json:"snapshots_found"`
	NewSnapshots     int `gorm:"not null;default:0" json:"new_snapshots"`
	UpdatedSnapshots int `gorm:"not null;default:0" json:"updated_snapshots"`

	Errors          datatypes.JSONSlice[string] `json:"errors"`
	PrefixesScanned datatypes.JSONSlice[string] `json:"prefixes_scanned"`
	DurationSeconds float64                     `json:"duration_seconds"`
}
