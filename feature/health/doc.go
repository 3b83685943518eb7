// Package health exposes the unauthenticated service health check.
//
// GET /health probes the catalog database and the object store and reports
// "healthy", "degraded" (one dependency down), or "unhealthy" (both down),
// along with per-dependency connectivity flags.
package health
