// Package tasks orchestrates bulk persistence of normalized entity
// collections with real-time progress reporting.
//
// # Core Operation
//
// [LoadEngine.Load] persists one entity collection to one store collection.
// Every entity becomes an independent upsert keyed by its id, dispatched
// through a bounded worker pool with rate limiting. One failed upsert never
// prevents the others from being attempted (there is no transaction and no
// rollback), and the aggregate [BulkLoadResult] accounts for every input id
// exactly once, split into succeeded ids and per-item failures.
//
// Referential integrity is not re-verified at write time; the normalizer
// guarantees it at ingestion.
//
// # Progress Reporting
//
// Operations emit [ProgressUpdate] values on a caller-supplied channel using
// a non-blocking send, so a slow or absent consumer never stalls loading.
package tasks
