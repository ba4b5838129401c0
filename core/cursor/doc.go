// Package cursor persists the feed resume position.
//
// The cursor is committed only after every record of the batch ending at it has been
// handed to the output writer, so a restart resumes at the first unprocessed page
// (at-least-once: records of an uncommitted batch are reprocessed).
//
// # Backends
//
//   - file: a local file replaced atomically (temp file + rename).
//   - database: a row in feed_cursors keyed by name, upserted through GORM.
//   - object: an object in the state bucket (MinIO/S3).
//
// WithOverride serves as a manual reset: the configured value is returned by the first
// Load and discarded after the next successful Save.
package cursor
