// Package utils provides common utility functions for the stash-ingest application.
// It includes lenient type conversion helpers for rows decoded from the storage
// service, whose numeric columns may be serialised as numbers or as strings.
package utils
