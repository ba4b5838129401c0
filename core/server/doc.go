// Package server holds the operator status server configuration.
//
// The status server is a small Fiber application started by the "start" command.
// It exposes health, ingestion progress and Prometheus metrics; it never serves
// listing data to end users.
//
// # Configuration
//
// The Config struct defines the bind address, the port and an optional API key
// that protects every route except /health.
package server
