package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// RowError reports one skipped ingestion row. Collected, never raised.
type RowError struct {
	Index int   // zero-based position in the input sequence
	Err   error // wraps shared.ErrRowParse
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

// MarshalJSON flattens the wrapped error into a string so row errors survive
// JSON output instead of encoding as an empty object.
func (e RowError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index  int    `json:"index"`
		Reason string `json:"reason"`
	}{Index: e.Index, Reason: e.Err.Error()})
}

// Result is the normalized entity graph produced from one row sequence.
//
// Users never originate from rows; they come from fixtures or interactive
// creation.
type Result struct {
	Tracks    []models.Track
	Albums    []models.Album
	Playlists []models.Playlist
	Errors    []RowError
}

// Normalizer converts raw source rows into entity collections.
type Normalizer struct {
	logger *log.Logger
}

// NewNormalizer creates a Normalizer. A nil logger disables warning output.
func NewNormalizer(logger *log.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize iterates rows once, in source order, building the entity graph.
//
// Tracks are appended for every row: a track id legitimately recurs once per
// playlist it belongs to, and repeated rows are emitted as-is rather than
// silently collapsed. Albums and playlists dedup by id, first occurrence
// wins. Each playlist accumulates its track ids in first-seen order with
// duplicates suppressed.
//
// A row missing its track id is skipped and recorded in Result.Errors;
// normalization of the remaining rows continues.
func (n *Normalizer) Normalize(rows []Row) *Result {
	result := &Result{}

	albumSeen := make(map[string]bool)
	playlistSeen := make(map[string]bool)
	playlistTracks := make(map[string][]string)
	playlistTrackSeen := make(map[string]map[string]bool)

	for i, row := range rows {
		if row.TrackID == "" {
			err := RowError{Index: i, Err: fmt.Errorf("%w: missing track_id", shared.ErrRowParse)}
			result.Errors = append(result.Errors, err)
			if n.logger != nil {
				n.logger.Warn("skipping malformed row", "index", i, "reason", "missing track_id")
			}
			continue
		}

		result.Tracks = append(result.Tracks, models.Track{
			ID:         row.TrackID,
			Name:       row.TrackName,
			ArtistName: row.TrackArtist,
			Popularity: row.TrackPopularity,
			AlbumID:    row.TrackAlbumID,
			Features:   parseFeatures(row),
		})

		if row.TrackAlbumID != "" && !albumSeen[row.TrackAlbumID] {
			albumSeen[row.TrackAlbumID] = true
			result.Albums = append(result.Albums, models.Album{
				ID:          row.TrackAlbumID,
				Name:        row.TrackAlbumName,
				ReleaseDate: row.TrackAlbumRelease,
			})
		}

		if row.PlaylistID == "" {
			continue
		}

		if !playlistSeen[row.PlaylistID] {
			playlistSeen[row.PlaylistID] = true
			playlistTrackSeen[row.PlaylistID] = make(map[string]bool)
			result.Playlists = append(result.Playlists, models.Playlist{
				ID:       row.PlaylistID,
				Name:     row.PlaylistName,
				Genre:    row.PlaylistGenre,
				Subgenre: row.PlaylistSubgenre,
				UserID:   models.ExternalOwner,
			})
		}

		// Idempotent append: first-seen order, no duplicates within one playlist.
		if !playlistTrackSeen[row.PlaylistID][row.TrackID] {
			playlistTrackSeen[row.PlaylistID][row.TrackID] = true
			playlistTracks[row.PlaylistID] = append(playlistTracks[row.PlaylistID], row.TrackID)
		}
	}

	for i := range result.Playlists {
		result.Playlists[i].PlaylistTracks = playlistTracks[result.Playlists[i].ID]
	}

	return result
}

// parseFeatures converts the row's feature fields to their target types.
// Parse failures yield NaN for continuous features and zero for integers.
func parseFeatures(row Row) models.Features {
	return models.Features{
		Danceability:     parseFloat(row.Danceability),
		Energy:           parseFloat(row.Energy),
		Speechiness:      parseFloat(row.Speechiness),
		Acousticness:     parseFloat(row.Acousticness),
		Instrumentalness: parseFloat(row.Instrumentalness),
		Liveness:         parseFloat(row.Liveness),
		Valence:          parseFloat(row.Valence),
		Key:              parseInt(row.Key),
		Loudness:         parseFloat(row.Loudness),
		Mode:             parseInt(row.Mode),
		Tempo:            parseFloat(row.Tempo),
		DurationMS:       parseInt(row.DurationMS),
	}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
