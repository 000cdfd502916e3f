package playlists

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/store"
)

// SearchTracks performs a case-insensitive substring search over track name
// and artist name.
//
// A blank query returns an empty result without touching the store. A
// non-empty query scans the whole Tracks collection; the store offers no
// substring index, so filtering happens here. Result order follows store
// iteration order.
func (s *Service) SearchTracks(ctx context.Context, query string) ([]models.Track, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	docs, err := s.store.ScanAll(ctx, store.Tracks)
	if err != nil {
		return nil, fmt.Errorf("search tracks: %w", err)
	}

	var matches []models.Track
	for _, doc := range docs {
		var track models.Track
		if err := doc.Decode(&track); err != nil {
			return nil, fmt.Errorf("decode track %s: %w", doc.ID, err)
		}

		if strings.Contains(strings.ToLower(track.Name), query) ||
			strings.Contains(strings.ToLower(track.ArtistName), query) {
			matches = append(matches, track)
		}
	}
	return matches, nil
}
