// Package models defines the domain entities of the music catalog and their document shapes.
//
// The entity graph mirrors the flat ingestion source after normalization:
//
//   - [Track] : a song with audio [Features], referencing its [Album] by id
//   - [Album] : release metadata, deduplicated by id at ingestion (first occurrence wins)
//   - [Playlist] : the canonical playlist record, holding an ordered list of track ids
//   - [User] : an account whose record embeds denormalized copies of its playlists
//
// A Playlist exists in two places at once: the canonical record in the
// Playlist collection and a denormalized copy inside the owning User record.
// [PlaylistRef] models the embedded side as a tagged variant because older
// records hold bare playlist id strings where newer ones hold full snapshots.
// Reads normalize to the snapshot shape; writes always emit snapshots.
//
// All entities implement [Entity], which exposes the document key used by
// the store and the bulk loader.
package models
