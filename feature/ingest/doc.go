// Package ingest runs the ingestion loop and reports its progress.
//
// # Loop
//
// Service.Run resolves the resume cursor, starts the feed producer and then, for
// every batch:
//
//  1. promotes a refreshed modifier catalog, if one is pending;
//  2. runs the detector pipeline;
//  3. extracts modifier facts from the detected items;
//  4. assembles rows and hands them to the output writer;
//  5. commits the batch cursor.
//
// The cursor is committed once the rows are accepted by the writer, not once storage
// confirmed them; the writer retries and spools independently. A crash between steps
// 4 and 5 redelivers the batch on restart. Storage upserts absorb the duplicate.
//
// # Shutdown
//
// Cancelling Run's context stops page fetching. Pages already fetched are processed
// and committed, then Run returns nil.
//
// # Status
//
// The ingest Feature exposes GET /ingest/status on the status server.
package ingest
