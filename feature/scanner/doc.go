// Package scanner implements snapshot discovery and catalog reconciliation.
//
// The object store lays snapshots out as a two-level prefix hierarchy:
// protocol directories at the bucket root (dash-joined names encoding
// chain/client/network/type, e.g. "ethereum-reth-mainnet-archive-v1"), each
// containing version directories ("1/", "2/", ...). A version directory is a
// snapshot if and only if it holds a manifest-body.json object; an optional
// manifest-header.json supplies size, chunk count, and compression metrics.
//
// # Components
//
//   - Gateway: read-only view of the bucket (delimited prefix listing,
//     existence checks, object reads).
//   - ParseProtocolDir: recovers structured attributes from a protocol
//     directory name, working backward from the end because only the chain
//     segment may contain dashes.
//   - Extractor: recognizes snapshot directories and pulls header metrics.
//   - Engine: one reconciliation pass: walk, parse, extract, upsert.
//     Records are created once per path and only their manifest metrics are
//     refreshed afterward; structural attributes and external annotations
//     are never overwritten. Per-directory failures are collected, not
//     propagated; only traversal failures abort a pass, and the ScanRun is
//     closed with partial counts even then.
//   - Scheduler: the background loop (immediate pass, then interval waits)
//     plus an independent manual trigger. Overlapping passes are safe: the
//     catalog's unique path constraint resolves creation races, the loser
//     falling back to the update path.
//
// # HTTP Endpoints
//
//   - POST /scanner/scan   : run a manual pass now
//   - POST /scanner/start  : start the background loop
//   - POST /scanner/stop   : stop the background loop
//   - GET  /scanner/status : loop state
package scanner
