// Package ingest converts the flat, denormalized source rows into the
// catalog's entity graph.
//
// The source is tabular: one row per track occurrence within one playlist
// context, so track, album, and playlist fields repeat across rows. A single
// pass in source order produces:
//
//   - every row appends a [models.Track] (no dedup; repeated ids collapse
//     later under the store's idempotent upsert)
//   - albums dedup by id, first occurrence wins even when later rows disagree
//   - playlists dedup by id and accumulate an ordered, duplicate-free track
//     id list; their owner defaults to [models.ExternalOwner]
//
// Ingestion is tolerant at row granularity: a row missing its track id is
// skipped and reported as a [RowError]; feature fields that fail to parse
// carry NaN (floats) or zero (integers) instead of aborting the batch.
// Normalization is a pure function of its input: re-running it over the
// same rows yields an identical result.
package ingest
