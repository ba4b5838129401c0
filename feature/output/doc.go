// Package output shapes extraction results into storage rows and writes them.
//
// Assemble builds ItemRow values (one per detected listing and variant) and
// ModifierRow values (one per extracted fact).
//
// Sink posts rows to the storage service, items first so that facts never reference an
// unknown item. Requests carry at most ChunkSize rows. Rejected chunks are bisected
// until the refused records are isolated; chunks that keep failing for transient
// reasons are spooled to object storage under deadletter/<kind>/<uuid>.json.
//
// Writer runs the sink on its own goroutine behind a bounded queue. The ingestion
// loop only waits for queue space, never for storage retries.
package output
