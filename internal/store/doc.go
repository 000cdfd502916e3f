// Package store implements the document store the catalog persists into.
//
// The store is a key-value document service: records are addressed by
// (collection, id) and written whole. Only single-document atomicity is
// provided; there is no multi-document transaction, which is why the
// playlist mutation paths in [github.com/desertthunder/mixtape/internal/playlists]
// treat their dual writes as an explicit two-step sequence with observable
// partial failure.
//
// Two implementations are provided:
//
//   - [SQLite] : documents as JSON bodies in a single SQLite table, with
//     equality queries served by json_extract
//   - [Memory] : a mutex-guarded in-memory map, used by tests and ephemeral runs
//
// Both satisfy [Store]. Callers receive dependencies by injection so either
// implementation (or a failure-injecting wrapper) can stand in.
package store
