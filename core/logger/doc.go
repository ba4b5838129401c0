// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments (development vs production)
// and integrates with the Fiber status server and the ingestion loop.
//
// # Context Awareness
//
// Two helpers attach correlation ids to a logger:
//   - WithRayID extracts the RayID from a Fiber context (status server requests).
//   - WithBatch tags every entry emitted while a feed batch is processed, so that a
//     catalog mismatch or a rejected output row can be traced back to its batch.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Ingestion started")
//
//	l := logger.WithBatch(log, batch.ID)
//	l.Warn("Catalog mismatch", zap.String("text", affix))
package logger
