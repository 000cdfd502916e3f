package playlists

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/store"
)

// SessionState is the lifecycle state of one editing session.
type SessionState int

const (
	StateIdle     SessionState = iota // No playlist loaded
	StateSelected                     // Editable copy loaded, unmodified
	StateEditing                      // Fields or tracks mutated in memory
	StateSaved                        // Changes written back; terminal
	StateDeleted                      // Playlist removed; terminal
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelected:
		return "selected"
	case StateEditing:
		return "editing"
	case StateSaved:
		return "saved"
	case StateDeleted:
		return "deleted"
	default:
		return ""
	}
}

// Session holds the in-memory editable copy of exactly one playlist.
//
// The copy buffers all edits until [Service.Save]; nothing is persisted
// before then. Tracks are held as full records (resolved at load) so callers
// can display names and artists, and are reduced back to bare ids on save.
// A session is owned by a single interactive flow and is not safe for
// concurrent use.
type Session struct {
	state    SessionState
	playlist models.Playlist
	tracks   []models.Track
}

// NewSession creates an idle editing session.
func NewSession() *Session {
	return &Session{state: StateIdle}
}

// LoadSession resolves a playlist and its track details into a fresh session.
//
// A track id with no catalog record is kept as a bare-id placeholder so that
// saving never silently drops references.
func (s *Service) LoadSession(ctx context.Context, playlistID string) (*Session, error) {
	sess := NewSession()
	if err := s.loadInto(ctx, sess, playlistID); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) loadInto(ctx context.Context, sess *Session, playlistID string) error {
	if sess.state != StateIdle {
		return fmt.Errorf("%w: session already holds playlist %s", shared.ErrInvalidInput, sess.playlist.ID)
	}

	var playlist models.Playlist
	if err := s.store.Get(ctx, store.Playlist, playlistID, &playlist); err != nil {
		return fmt.Errorf("load playlist %s: %w", playlistID, err)
	}

	tracks := make([]models.Track, 0, len(playlist.PlaylistTracks))
	for _, trackID := range playlist.PlaylistTracks {
		var track models.Track
		if err := s.store.Get(ctx, store.Tracks, trackID, &track); err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return fmt.Errorf("resolve track %s: %w", trackID, err)
			}
			if s.logger != nil {
				s.logger.Warn("playlist references unknown track", "playlist", playlistID, "track", trackID)
			}
			track = models.Track{ID: trackID}
		}
		tracks = append(tracks, track)
	}

	sess.state = StateSelected
	sess.playlist = playlist
	sess.tracks = tracks
	return nil
}

// State returns the session's lifecycle state.
func (sess *Session) State() SessionState { return sess.state }

// Playlist returns a copy of the editable playlist record.
func (sess *Session) Playlist() models.Playlist { return sess.snapshot() }

// Tracks returns the resolved track records of the editable copy.
func (sess *Session) Tracks() []models.Track {
	out := make([]models.Track, len(sess.tracks))
	copy(out, sess.tracks)
	return out
}

// SetName updates the playlist name on the editable copy.
func (sess *Session) SetName(name string) error {
	if err := sess.editable(); err != nil {
		return err
	}
	sess.playlist.Name = name
	sess.state = StateEditing
	return nil
}

// SetGenre updates the genre on the editable copy.
func (sess *Session) SetGenre(genre string) error {
	if err := sess.editable(); err != nil {
		return err
	}
	sess.playlist.Genre = genre
	sess.state = StateEditing
	return nil
}

// SetSubgenre updates the subgenre on the editable copy.
func (sess *Session) SetSubgenre(subgenre string) error {
	if err := sess.editable(); err != nil {
		return err
	}
	sess.playlist.Subgenre = subgenre
	sess.state = StateEditing
	return nil
}

// AddTrack appends a track to the editable copy, deduplicated by id.
func (sess *Session) AddTrack(track models.Track) error {
	if err := sess.editable(); err != nil {
		return err
	}
	for _, t := range sess.tracks {
		if t.ID == track.ID {
			return nil
		}
	}
	sess.tracks = append(sess.tracks, track)
	sess.state = StateEditing
	return nil
}

// RemoveTrack removes the track with the given id from the editable copy.
func (sess *Session) RemoveTrack(trackID string) error {
	if err := sess.editable(); err != nil {
		return err
	}
	kept := sess.tracks[:0]
	for _, t := range sess.tracks {
		if t.ID != trackID {
			kept = append(kept, t)
		}
	}
	sess.tracks = kept
	sess.state = StateEditing
	return nil
}

// snapshot reduces the editable copy to its document shape: track records
// become bare ids again.
func (sess *Session) snapshot() models.Playlist {
	playlist := sess.playlist
	playlist.PlaylistTracks = make([]string, 0, len(sess.tracks))
	for _, t := range sess.tracks {
		playlist.PlaylistTracks = append(playlist.PlaylistTracks, t.ID)
	}
	return playlist
}

func (sess *Session) editable() error {
	if sess.state != StateSelected && sess.state != StateEditing {
		return fmt.Errorf("%w: session is %s, not editable", shared.ErrInvalidInput, sess.state)
	}
	return nil
}
