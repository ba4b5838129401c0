// Package metrics exposes Prometheus collectors for the ingestion pipeline.
//
// Collectors live on a private registry created by New, so tests and commands can
// create independent instances without duplicate registration panics. The status
// server mounts Handler at /metrics.
package metrics
