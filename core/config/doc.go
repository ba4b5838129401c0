// Package config loads the configuration of the ingestion service.
//
// Values come from the environment, optionally seeded from a .env file (godotenv),
// and are decoded by Viper. Every field of every section declares its key with a
// `mapstructure` tag and its default with a `default` tag; the defaults are registered
// by reflection so that each key can be overridden through an environment variable
// named SECTION_KEY (e.g. FEED_USER_AGENT, STREAM_CHECKPOINT_PAGES).
//
// # Sections
//
//   - server: status server (port, API key)
//   - storage: MinIO/S3 client for the dead-letter spool and the object cursor
//   - log: level and format
//   - database: MySQL or SQLite connection for the database cursor
//   - feed: feed url, OAuth credentials, User-Agent, pacing and retries
//   - stream: batch thresholds
//   - cursor: cursor backend and manual override (CURSOR_OVERRIDE)
//   - catalog: modifier catalog refresh
//   - detector, dedup: detector variants, filters and fingerprint window
//   - output: storage service endpoints, chunking and retries
//
// List values such as DETECTOR_LEAGUES are comma separated.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
