// Package fixtures synthesizes User and Playlist entities to enrich a real
// but small dataset for bootstrap and demo purposes.
//
// Generation is random by design, so the random source is injected: tests
// pass a seeded [rand.Rand] for reproducible output. Nothing here touches
// the store; callers persist the returned entities through the bulk loader.
package fixtures

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
)

// GenresAndSubgenres is the fixed vocabulary synthetic playlists draw from.
// Genre and subgenre are picked independently and may coincide.
var GenresAndSubgenres = []string{
	"Trap", "Techno", "Techhouse", "Trance", "Psytrance",
	"Dark Trap", "DnB", "Hardstyle", "Underground Rap",
	"Trap Metal", "Emo", "Rap", "RnB", "Pop", "Hiphop",
}

// Track count bounds for one synthetic playlist.
const (
	minTracks = 5
	maxTracks = 10
)

// Generator produces synthetic catalog entities from an injected random
// source and clock.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator creates a Generator. A nil rng falls back to a time-seeded
// source; a nil now falls back to [time.Now].
func NewGenerator(rng *rand.Rand, now func() time.Time) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{rng: rng, now: now}
}

// Users synthesizes count user records with deterministic ids and generated
// display names and emails.
func (g *Generator) Users(count int) []models.User {
	users := make([]models.User, 0, count)
	for i := 1; i <= count; i++ {
		users = append(users, models.User{
			ID:        fmt.Sprintf("user_%d", i),
			UserName:  fmt.Sprintf("User Name %d", i),
			Email:     fmt.Sprintf("user%d@example.com", i),
			CreatedAt: g.now(),
		})
	}
	return users
}

// Playlists synthesizes count playlists: each picks a random owner from
// users, a random genre and subgenre from the vocabulary, and 5-10 track
// references sampled independently and uniformly (with replacement) from
// tracks.
func (g *Generator) Playlists(users []models.User, tracks []models.Track, count int) ([]models.Playlist, error) {
	if count > 0 && len(users) == 0 {
		return nil, fmt.Errorf("cannot generate playlists without users")
	}
	if count > 0 && len(tracks) == 0 {
		return nil, fmt.Errorf("cannot generate playlists without tracks")
	}

	playlists := make([]models.Playlist, 0, count)
	for i := 1; i <= count; i++ {
		owner := users[g.rng.Intn(len(users))]

		numTracks := minTracks + g.rng.Intn(maxTracks-minTracks+1)
		trackIDs := make([]string, 0, numTracks)
		for j := 0; j < numTracks; j++ {
			trackIDs = append(trackIDs, tracks[g.rng.Intn(len(tracks))].ID)
		}

		playlists = append(playlists, models.Playlist{
			ID:             fmt.Sprintf("playlist_%d", i),
			Name:           fmt.Sprintf("Playlist %d", i),
			Genre:          GenresAndSubgenres[g.rng.Intn(len(GenresAndSubgenres))],
			Subgenre:       GenresAndSubgenres[g.rng.Intn(len(GenresAndSubgenres))],
			UserID:         owner.ID,
			PlaylistTracks: trackIDs,
		})
	}
	return playlists, nil
}
