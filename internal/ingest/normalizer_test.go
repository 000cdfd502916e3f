package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/store"
	"github.com/desertthunder/mixtape/internal/tasks"
	tu "github.com/desertthunder/mixtape/internal/testing"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func row(trackID, albumID, albumName, playlistID string) Row {
	return Row{
		TrackID:           trackID,
		TrackName:         "Name " + trackID,
		TrackArtist:       "Artist " + trackID,
		TrackPopularity:   "50",
		TrackAlbumID:      albumID,
		TrackAlbumName:    albumName,
		TrackAlbumRelease: "2020-01-01",
		Danceability:      "0.5",
		Energy:            "0.6",
		Speechiness:       "0.1",
		Acousticness:      "0.2",
		Instrumentalness:  "0.0",
		Liveness:          "0.15",
		Valence:           "0.4",
		Key:               "7",
		Loudness:          "-6.0",
		Mode:              "1",
		Tempo:             "120.0",
		DurationMS:        "210000",
		PlaylistID:        playlistID,
		PlaylistName:      "Playlist " + playlistID,
		PlaylistGenre:     "Pop",
		PlaylistSubgenre:  "Synthpop",
	}
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(nil)

	t.Run("album dedup keeps first occurrence", func(t *testing.T) {
		rows := []Row{
			row("t1", "a1", "First Name", "p1"),
			row("t2", "a1", "Second Name", "p1"),
		}

		result := n.Normalize(rows)

		if len(result.Albums) != 1 {
			t.Fatalf("expected 1 album, got %d", len(result.Albums))
		}
		if result.Albums[0].Name != "First Name" {
			t.Errorf("expected first row's album name, got %q", result.Albums[0].Name)
		}
	})

	t.Run("playlist tracks preserve first-seen order without duplicates", func(t *testing.T) {
		rows := []Row{
			row("t1", "a1", "A", "p1"),
			row("t2", "a2", "B", "p1"),
			row("t1", "a1", "A", "p1"), // repeat within same playlist
			row("t3", "a3", "C", "p1"),
		}

		result := n.Normalize(rows)

		if len(result.Playlists) != 1 {
			t.Fatalf("expected 1 playlist, got %d", len(result.Playlists))
		}
		want := []string{"t1", "t2", "t3"}
		if diff := cmp.Diff(want, result.Playlists[0].PlaylistTracks); diff != "" {
			t.Errorf("track list mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("two playlists sharing a track", func(t *testing.T) {
		rows := []Row{
			row("t1", "a1", "A", "p1"),
			row("t2", "a2", "B", "p1"),
			row("t1", "a1", "A", "p2"),
		}

		result := n.Normalize(rows)

		if len(result.Playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(result.Playlists))
		}
		if diff := cmp.Diff([]string{"t1", "t2"}, result.Playlists[0].PlaylistTracks); diff != "" {
			t.Errorf("p1 track list mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"t1"}, result.Playlists[1].PlaylistTracks); diff != "" {
			t.Errorf("p2 track list mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("tracks are appended per row without dedup", func(t *testing.T) {
		rows := []Row{
			row("t1", "a1", "A", "p1"),
			row("t1", "a1", "A", "p2"),
		}

		result := n.Normalize(rows)

		if len(result.Tracks) != 2 {
			t.Errorf("expected 2 track entries (one per row), got %d", len(result.Tracks))
		}
	})

	t.Run("ingested playlists default to the external owner", func(t *testing.T) {
		result := n.Normalize([]Row{row("t1", "a1", "A", "p1")})

		if result.Playlists[0].UserID != models.ExternalOwner {
			t.Errorf("expected owner %q, got %q", models.ExternalOwner, result.Playlists[0].UserID)
		}
	})

	t.Run("malformed row is skipped and reported", func(t *testing.T) {
		rows := []Row{
			row("t1", "a1", "A", "p1"),
			row("", "a2", "B", "p1"), // missing track id
			row("t2", "a3", "C", "p1"),
		}

		result := n.Normalize(rows)

		if len(result.Tracks) != 2 {
			t.Errorf("expected 2 tracks, got %d", len(result.Tracks))
		}
		if len(result.Errors) != 1 {
			t.Fatalf("expected 1 row error, got %d", len(result.Errors))
		}
		if result.Errors[0].Index != 1 {
			t.Errorf("expected error at index 1, got %d", result.Errors[0].Index)
		}
		if !errors.Is(result.Errors[0].Err, shared.ErrRowParse) {
			t.Errorf("expected ErrRowParse, got %v", result.Errors[0].Err)
		}
		// The skipped row must not contribute its album or playlist entry.
		if len(result.Albums) != 2 {
			t.Errorf("expected 2 albums, got %d", len(result.Albums))
		}
	})

	t.Run("unparseable features yield sentinels", func(t *testing.T) {
		r := row("t1", "a1", "A", "p1")
		r.Danceability = "not-a-number"
		r.Key = "not-a-number"
		r.DurationMS = ""

		result := n.Normalize([]Row{r})

		features := result.Tracks[0].Features
		if !math.IsNaN(features.Danceability) {
			t.Errorf("expected NaN danceability, got %v", features.Danceability)
		}
		if features.Key != 0 {
			t.Errorf("expected zero key, got %d", features.Key)
		}
		if features.DurationMS != 0 {
			t.Errorf("expected zero duration, got %d", features.DurationMS)
		}
		if features.Energy != 0.6 {
			t.Errorf("expected parsed energy 0.6, got %v", features.Energy)
		}
	})

	t.Run("popularity passes through unparsed", func(t *testing.T) {
		r := row("t1", "a1", "A", "p1")
		r.TrackPopularity = "081"

		result := n.Normalize([]Row{r})

		if result.Tracks[0].Popularity != "081" {
			t.Errorf("expected popularity passthrough, got %q", result.Tracks[0].Popularity)
		}
	})

	t.Run("normalization is idempotent", func(t *testing.T) {
		rows := []Row{
			row("t1", "a1", "A", "p1"),
			row("t2", "a1", "Other", "p2"),
			row("", "a2", "B", "p1"),
		}
		rows[1].Tempo = "bad" // NaN in the output on both runs

		first := n.Normalize(rows)
		second := n.Normalize(rows)

		opts := []cmp.Option{
			cmpopts.EquateNaNs(),
			cmp.Comparer(func(a, b RowError) bool {
				return a.Index == b.Index && a.Error() == b.Error()
			}),
		}
		if diff := cmp.Diff(first, second, opts...); diff != "" {
			t.Errorf("repeated normalization differs (-first +second):\n%s", diff)
		}
	})
}

func TestRowErrorJSON(t *testing.T) {
	result := NewNormalizer(nil).Normalize([]Row{row("", "a1", "A", "p1")})
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 row error, got %d", len(result.Errors))
	}

	data, err := json.Marshal(result.Errors)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"index":0`) {
		t.Errorf("expected row index in output, got %s", data)
	}
	if !strings.Contains(string(data), shared.ErrRowParse.Error()) {
		t.Errorf("expected the parse reason in output, got %s", data)
	}
}

func TestNormalizedTracksAreStorable(t *testing.T) {
	r := row("t1", "a1", "A", "p1")
	r.Danceability = "not-a-number"

	result := NewNormalizer(nil).Normalize([]Row{r})
	if len(result.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(result.Tracks))
	}

	entities := make([]models.Entity, 0, len(result.Tracks))
	for _, track := range result.Tracks {
		entities = append(entities, track)
	}

	s := store.NewMemory()
	loaded, err := tasks.NewLoadEngine(s).Load(context.Background(), nil, store.Tracks, entities, tasks.LoadOpts{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded.Failed) != 0 {
		t.Fatalf("expected no failures, got %v", loaded.Failed)
	}

	var stored models.Track
	if err := s.Get(context.Background(), store.Tracks, "t1", &stored); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !math.IsNaN(stored.Features.Danceability) {
		t.Errorf("expected NaN danceability after round-trip, got %v", stored.Features.Danceability)
	}
	if stored.Features.Energy != 0.6 {
		t.Errorf("expected parsed energy 0.6, got %v", stored.Features.Energy)
	}
}

func TestNormalizeSampleSource(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(tu.SampleCSV()))
	if err != nil {
		t.Fatalf("failed to read sample source: %v", err)
	}

	result := NewNormalizer(nil).Normalize(rows)

	if len(result.Tracks) != 4 {
		t.Errorf("expected 4 tracks, got %d", len(result.Tracks))
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 skipped row, got %d", len(result.Errors))
	}

	albums := make(map[string]string, len(result.Albums))
	for _, album := range result.Albums {
		albums[album.ID] = album.Name
	}
	if albums["a1"] != "Hurry Up We're Dreaming" {
		t.Errorf("album a1 should keep its first name, got %q", albums["a1"])
	}

	if len(result.Playlists) != 2 {
		t.Fatalf("expected 2 playlists, got %d", len(result.Playlists))
	}
	if diff := cmp.Diff([]string{"t1", "t2"}, result.Playlists[0].PlaylistTracks); diff != "" {
		t.Errorf("p1 tracks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"t1", "t3"}, result.Playlists[1].PlaylistTracks); diff != "" {
		t.Errorf("p2 tracks mismatch (-want +got):\n%s", diff)
	}
}
