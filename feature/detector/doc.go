// Package detector selects the interesting listings of a batch.
//
// # Stages
//
//  1. GeneralFilter drops what no detector can use: private stashes, other leagues,
//     items locked to a character or account, and notes that are not a trade listing
//     ("~b/o <amount> <currency>" or "~price <amount> <currency>"). The item note wins
//     over the stash name.
//  2. Each Detector variant applies its own predicate to the filtered listings:
//     unique, unique_unidentified, unique_foulborn and idol.
//  3. The variant's Window drops listings whose Fingerprint (item id + note) was seen in
//     the current batch or a retained prior batch.
//
// Variants run concurrently over the same read-only slice. A detector whose required
// field is absent from the whole batch reports MissingFieldError and yields nothing for
// that batch; the other variants are unaffected.
//
// The fingerprint window is process local. It absorbs repeats of unchanged listings
// between consecutive batches; cross-run deduplication is left to the storage upsert.
package detector
