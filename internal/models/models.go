package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/desertthunder/mixtape/internal/shared"
)

// ExternalOwner is the sentinel owner id for playlists that came from the
// ingestion source rather than from a real user.
const ExternalOwner = "Spotify"

// Entity is any record addressable by a document key within its collection.
type Entity interface {
	Key() string
}

// Features holds the fixed-shape audio feature record of a track.
//
// Continuous features live in [0,1] (approximately); key and mode are small
// integers; loudness is in dB and tempo in BPM. A feature that failed to
// parse at ingestion carries NaN (floats) or zero (integers).
type Features struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Key              int     `json:"key"`
	Loudness         float64 `json:"loudness"`
	Mode             int     `json:"mode"`
	Tempo            float64 `json:"tempo"`
	DurationMS       int     `json:"duration_ms"`
}

// featuresDoc is the document shape of [Features]. Continuous features are
// pointers so that NaN sentinels can be stored as null, which encoding/json
// refuses to do for a bare float64.
type featuresDoc struct {
	Danceability     *float64 `json:"danceability"`
	Energy           *float64 `json:"energy"`
	Speechiness      *float64 `json:"speechiness"`
	Acousticness     *float64 `json:"acousticness"`
	Instrumentalness *float64 `json:"instrumentalness"`
	Liveness         *float64 `json:"liveness"`
	Valence          *float64 `json:"valence"`
	Key              int      `json:"key"`
	Loudness         *float64 `json:"loudness"`
	Mode             int      `json:"mode"`
	Tempo            *float64 `json:"tempo"`
	DurationMS       int      `json:"duration_ms"`
}

// nullableFloat maps a NaN sentinel to a nil pointer for encoding.
func nullableFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// floatOrNaN maps a null document value back to the NaN sentinel.
func floatOrNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// MarshalJSON encodes NaN feature values as null so that tracks with
// unparseable source features remain storable.
func (f Features) MarshalJSON() ([]byte, error) {
	return json.Marshal(featuresDoc{
		Danceability:     nullableFloat(f.Danceability),
		Energy:           nullableFloat(f.Energy),
		Speechiness:      nullableFloat(f.Speechiness),
		Acousticness:     nullableFloat(f.Acousticness),
		Instrumentalness: nullableFloat(f.Instrumentalness),
		Liveness:         nullableFloat(f.Liveness),
		Valence:          nullableFloat(f.Valence),
		Key:              f.Key,
		Loudness:         nullableFloat(f.Loudness),
		Mode:             f.Mode,
		Tempo:            nullableFloat(f.Tempo),
		DurationMS:       f.DurationMS,
	})
}

// UnmarshalJSON restores null feature values to the NaN sentinel.
func (f *Features) UnmarshalJSON(data []byte) error {
	var doc featuresDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	f.Danceability = floatOrNaN(doc.Danceability)
	f.Energy = floatOrNaN(doc.Energy)
	f.Speechiness = floatOrNaN(doc.Speechiness)
	f.Acousticness = floatOrNaN(doc.Acousticness)
	f.Instrumentalness = floatOrNaN(doc.Instrumentalness)
	f.Liveness = floatOrNaN(doc.Liveness)
	f.Valence = floatOrNaN(doc.Valence)
	f.Key = doc.Key
	f.Loudness = floatOrNaN(doc.Loudness)
	f.Mode = doc.Mode
	f.Tempo = floatOrNaN(doc.Tempo)
	f.DurationMS = doc.DurationMS
	return nil
}

// Track is an immutable catalog entry created at ingestion.
//
// Popularity is a numeric string passed through from the source unparsed.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ArtistName string   `json:"artist_name"`
	Popularity string   `json:"popularity"`
	AlbumID    string   `json:"album_id"`
	Features   Features `json:"features"`
}

func (t Track) Key() string { return t.ID }

// Album is release metadata, deduplicated by id at ingestion.
type Album struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

func (a Album) Key() string { return a.ID }

// Playlist is the canonical playlist record.
//
// PlaylistTracks is an ordered sequence of track ids with duplicates
// suppressed; insertion order is first-seen order.
type Playlist struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Genre          string   `json:"genre"`
	Subgenre       string   `json:"subgenre"`
	UserID         string   `json:"user_id"`
	PlaylistTracks []string `json:"playlist_tracks"`
}

func (p Playlist) Key() string { return p.ID }

// Validate checks the fields a playlist must carry before any write.
func (p Playlist) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: playlist name is required", shared.ErrValidation)
	case p.Genre == "":
		return fmt.Errorf("%w: playlist genre is required", shared.ErrValidation)
	case p.Subgenre == "":
		return fmt.Errorf("%w: playlist subgenre is required", shared.ErrValidation)
	case len(p.PlaylistTracks) == 0:
		return fmt.Errorf("%w: playlist needs at least one track", shared.ErrValidation)
	}
	return nil
}

// User is an account record carrying denormalized copies of its playlists.
type User struct {
	ID        string        `json:"id"`
	UserName  string        `json:"user_name"`
	Email     string        `json:"email"`
	CreatedAt time.Time     `json:"created_at"`
	Playlists []PlaylistRef `json:"playlists,omitempty"`
}

func (u User) Key() string { return u.ID }

// PlaylistRef is one entry in a user's embedded playlist list.
//
// The stored shape is either a bare playlist id string (older records) or a
// full playlist snapshot. The two shapes are never mixed within one record,
// but both appear across a collection, so decoding accepts either. Encoding
// always emits the snapshot when one is present.
type PlaylistRef struct {
	ID       string
	Snapshot *Playlist
}

// EmbedPlaylist wraps a canonical playlist as an embedded reference.
func EmbedPlaylist(p Playlist) PlaylistRef {
	return PlaylistRef{ID: p.ID, Snapshot: &p}
}

// Ref returns the playlist id regardless of the stored shape.
func (r PlaylistRef) Ref() string {
	if r.Snapshot != nil {
		return r.Snapshot.ID
	}
	return r.ID
}

func (r PlaylistRef) MarshalJSON() ([]byte, error) {
	if r.Snapshot != nil {
		return json.Marshal(r.Snapshot)
	}
	return json.Marshal(r.ID)
}

func (r *PlaylistRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}

	var p Playlist
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to decode playlist reference: %w", err)
	}
	r.ID = p.ID
	r.Snapshot = &p
	return nil
}
