package store

import (
	"context"
	"encoding/json"
)

// Collection names used by the catalog.
//
// The inconsistent pluralization is inherited from the source dataset and is
// load-bearing: renaming a collection orphans previously written documents.
const (
	Users    = "Users"
	Tracks   = "Tracks"
	Album    = "Album"
	Playlist = "Playlist"
)

// Document is a raw record returned by scans and queries.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the document body into out.
func (d Document) Decode(out any) error {
	return json.Unmarshal(d.Data, out)
}

// Store is the document store boundary.
//
// Put is an idempotent upsert: writing the same id twice overwrites rather
// than duplicates. Update merges the given fields into the existing record.
// Get and Update report a missing record via [shared.ErrNotFound].
type Store interface {
	// Get retrieves the record at (collection, id) into out.
	Get(ctx context.Context, collection, id string, out any) error
	// Put creates or overwrites the record at (collection, id).
	Put(ctx context.Context, collection, id string, doc any) error
	// Update merges fields into the existing record at (collection, id).
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes the record at (collection, id).
	Delete(ctx context.Context, collection, id string) error
	// Query returns all records in collection whose field equals value.
	Query(ctx context.Context, collection, field string, value any) ([]Document, error)
	// ScanAll returns every record in the collection.
	ScanAll(ctx context.Context, collection string) ([]Document, error)
}
