// Package playlists implements interactive playlist mutations over the
// document store.
//
// # Dual-location writes
//
// A playlist lives in two places: the canonical record in the Playlist
// collection and a denormalized copy embedded in the owning User record.
// The store offers single-document atomicity only, so every mutation is an
// explicit two-step sequence: canonical write first, then a read-modify-write
// of the owner. When step two fails after step one succeeded, the copies
// diverge; the operation reports [shared.ErrPartialFailure] carrying the
// operation name, playlist id, and underlying cause. It does not roll back
// the canonical write, because no compensating transaction exists.
//
// Concurrent edits against the same playlist are not coordinated;
// last-writer-wins applies.
//
// # Editing sessions
//
// [Session] is the per-playlist editing state machine:
//
//	Idle → Selected (loaded, tracks resolved) → Editing → Saved | Deleted
//
// A session owns one editable copy; field and track edits stay in memory
// until [Service.Save] writes both locations.
//
// # Track lookup
//
// [Service.SearchTracks] is the discovery path backing track edits: a
// case-insensitive substring match over track name and artist, implemented
// as a full collection scan. This is deliberately unoptimized and a known
// scaling hazard on large catalogs; a blank query returns nothing without
// touching the store.
package playlists
