// Package database handles relational database connections.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to configure
// MySQL or SQLite connections based on the application's configuration.
//
// The ingestion core does not store domain data; the database is only used by the
// cursor package to persist the feed resume position when cursor.backend is
// "database". SQLite is supported for single-host deployments and tests.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
