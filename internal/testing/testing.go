// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/desertthunder/mixtape/internal/store"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// FlakyStore wraps a [store.Store] and fails writes for selected ids.
//
// Zero-value fields leave the wrapped behavior untouched.
type FlakyStore struct {
	store.Store

	mu       sync.Mutex
	FailPuts map[string]error // id -> error returned instead of writing
	PutErr   error            // non-nil fails every Put
}

func (f *FlakyStore) Put(ctx context.Context, collection, id string, doc any) error {
	f.mu.Lock()
	err := f.PutErr
	if err == nil && f.FailPuts != nil {
		err = f.FailPuts[id]
	}
	f.mu.Unlock()

	if err != nil {
		return err
	}
	return f.Store.Put(ctx, collection, id, doc)
}

// CountingStore wraps a [store.Store] and counts operations, so tests can
// assert that a code path did (or did not) touch the store.
type CountingStore struct {
	store.Store

	mu      sync.Mutex
	Gets    int
	Puts    int
	Scans   int
	Queries int
}

func (c *CountingStore) Get(ctx context.Context, collection, id string, out any) error {
	c.mu.Lock()
	c.Gets++
	c.mu.Unlock()
	return c.Store.Get(ctx, collection, id, out)
}

func (c *CountingStore) Put(ctx context.Context, collection, id string, doc any) error {
	c.mu.Lock()
	c.Puts++
	c.mu.Unlock()
	return c.Store.Put(ctx, collection, id, doc)
}

func (c *CountingStore) ScanAll(ctx context.Context, collection string) ([]store.Document, error) {
	c.mu.Lock()
	c.Scans++
	c.mu.Unlock()
	return c.Store.ScanAll(ctx, collection)
}

func (c *CountingStore) Query(ctx context.Context, collection, field string, value any) ([]store.Document, error) {
	c.mu.Lock()
	c.Queries++
	c.mu.Unlock()
	return c.Store.Query(ctx, collection, field, value)
}

// SampleCSV returns a small ingestion source covering dedup and ordering
// cases: two playlists sharing tracks, one repeated album with conflicting
// names, and one malformed row.
func SampleCSV() string {
	rows := []string{
		"track_id,track_name,track_artist,track_popularity,track_album_id,track_album_name,track_album_release_date,danceability,energy,speechiness,acousticness,instrumentalness,liveness,valence,key,loudness,mode,tempo,duration_ms,playlist_id,playlist_name,playlist_genre,playlist_subgenre",
		"t1,Midnight City,M83,81,a1,Hurry Up We're Dreaming,2011-10-18,0.52,0.73,0.04,0.02,0.43,0.1,0.36,5,-6.5,1,105.0,243960,p1,Synth Essentials,Electronic,Synthpop",
		"t2,Breezeblocks,alt-J,78,a2,An Awesome Wave,2012-05-25,0.62,0.64,0.05,0.2,0.01,0.12,0.41,9,-7.2,0,150.1,227080,p1,Synth Essentials,Electronic,Synthpop",
		"t1,Midnight City,M83,81,a1,Different Album Name,2011-01-01,0.52,0.73,0.04,0.02,0.43,0.1,0.36,5,-6.5,1,105.0,243960,p2,Night Drive,Electronic,Chillwave",
		",Ghost Row,Nobody,0,a3,Lost,2000-01-01,x,x,x,x,x,x,x,x,x,x,x,x,p2,Night Drive,Electronic,Chillwave",
		"t3,Intro,The xx,70,a2,An Awesome Wave,2012-05-25,0.41,0.58,0.03,0.31,0.62,0.09,0.23,4,-9.1,1,100.5,128000,p2,Night Drive,Electronic,Chillwave",
	}
	return strings.Join(rows, "\n") + "\n"
}
