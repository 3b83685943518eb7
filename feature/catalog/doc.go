// Package catalog implements the snapshot catalog feature.
//
// It owns the persisted catalog of discovered snapshots: the Snapshot and
// ScanRun models, the repository that is the sole writer of both, and the
// REST surface for browsing and annotating the catalog.
//
// # Ownership
//
// Two groups of fields live on a Snapshot with different owners:
//
//   - Manifest-derived metrics (size, chunk count, compression, manifest
//     metadata) are written by the discovery scanner during reconciliation.
//   - External annotations (block height, blob range, completion flag,
//     external metadata) are written only through the PATCH endpoint and are
//     never touched by a scan.
//
// The scanner never deletes records; deactivation happens only through the
// API (is_active in a PATCH body).
//
// # HTTP Endpoints
//
//   - GET    /snapshots                          : filtered listing
//   - GET    /snapshots/:id                      : single snapshot
//   - GET    /snapshots/by-path/:chain/:id       : lookup by chain + version id
//   - PATCH  /snapshots/:id                      : external annotations
//   - GET    /scans                              : scan run history
package catalog
