package playlists

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/store"
)

// Fields carries the user-editable playlist metadata.
type Fields struct {
	Name     string
	Genre    string
	Subgenre string
}

// Service performs playlist mutations with dual-location synchronization.
type Service struct {
	store  store.Store
	logger *log.Logger
	newID  func() string // injected for deterministic tests
}

// NewService creates a Service over the given store. A nil logger disables
// diagnostic output.
func NewService(s store.Store, logger *log.Logger) *Service {
	return &Service{store: s, logger: logger, newID: shared.GenerateID}
}

// Create writes a new canonical playlist and appends an embedded copy to the
// owner's record.
//
// Validation happens before any write: empty name, genre, or subgenre, or an
// empty track selection, rejects the call with no partial record written.
// The owner is also resolved up front so a missing user fails cleanly. Once
// the canonical write has succeeded, a failing owner update is reported as a
// partial failure and the canonical record stays in place.
func (s *Service) Create(ctx context.Context, ownerID string, fields Fields, trackIDs []string) (*models.Playlist, error) {
	playlist := models.Playlist{
		ID:             s.newID(),
		Name:           fields.Name,
		Genre:          fields.Genre,
		Subgenre:       fields.Subgenre,
		UserID:         ownerID,
		PlaylistTracks: dedupeIDs(trackIDs),
	}
	if err := playlist.Validate(); err != nil {
		return nil, err
	}

	var owner models.User
	if err := s.store.Get(ctx, store.Users, ownerID, &owner); err != nil {
		return nil, fmt.Errorf("create playlist: owner %s: %w", ownerID, err)
	}

	if err := s.store.Put(ctx, store.Playlist, playlist.ID, playlist); err != nil {
		return nil, fmt.Errorf("create playlist %s: %w", playlist.ID, err)
	}

	owner.Playlists = append(owner.Playlists, models.EmbedPlaylist(playlist))
	if err := s.store.Put(ctx, store.Users, ownerID, owner); err != nil {
		return &playlist, partialFailure("create playlist", playlist.ID, err)
	}

	if s.logger != nil {
		s.logger.Info("playlist created", "id", playlist.ID, "owner", ownerID, "tracks", len(playlist.PlaylistTracks))
	}
	return &playlist, nil
}

// Save writes a session's edited playlist back as canonical, then replaces
// the matching embedded copy in the owner's record.
//
// After a successful save, canonical and embedded copies are equivalent on
// name, genre, subgenre, and track-id list. Externally curated playlists
// have no owner record, so their save is single-step.
func (s *Service) Save(ctx context.Context, sess *Session) error {
	if sess == nil || (sess.state != StateSelected && sess.state != StateEditing) {
		return fmt.Errorf("%w: no playlist loaded for editing", shared.ErrInvalidInput)
	}

	playlist := sess.snapshot()
	if err := playlist.Validate(); err != nil {
		return err
	}

	if err := s.store.Put(ctx, store.Playlist, playlist.ID, playlist); err != nil {
		return fmt.Errorf("save playlist %s: %w", playlist.ID, err)
	}

	if playlist.UserID != models.ExternalOwner {
		if err := s.syncEmbedded(ctx, playlist); err != nil {
			return partialFailure("save playlist", playlist.ID, err)
		}
	}

	sess.state = StateSaved
	if s.logger != nil {
		s.logger.Info("playlist saved", "id", playlist.ID, "owner", playlist.UserID)
	}
	return nil
}

// Delete removes the canonical playlist record and the matching entry from
// the owner's embedded list.
//
// As with Save, the second step failing after the first succeeded leaves an
// observable divergence and is reported as a partial failure.
func (s *Service) Delete(ctx context.Context, playlistID, ownerID string) error {
	if err := s.store.Delete(ctx, store.Playlist, playlistID); err != nil {
		return fmt.Errorf("delete playlist %s: %w", playlistID, err)
	}

	if ownerID == models.ExternalOwner || ownerID == "" {
		return nil
	}

	var owner models.User
	if err := s.store.Get(ctx, store.Users, ownerID, &owner); err != nil {
		return partialFailure("delete playlist", playlistID, err)
	}

	kept := owner.Playlists[:0]
	for _, ref := range owner.Playlists {
		if ref.Ref() != playlistID {
			kept = append(kept, ref)
		}
	}
	owner.Playlists = kept

	if err := s.store.Put(ctx, store.Users, ownerID, owner); err != nil {
		return partialFailure("delete playlist", playlistID, err)
	}

	if s.logger != nil {
		s.logger.Info("playlist deleted", "id", playlistID, "owner", ownerID)
	}
	return nil
}

// DeleteSession deletes the playlist a session holds and marks the session
// terminal.
func (s *Service) DeleteSession(ctx context.Context, sess *Session) error {
	if sess == nil || (sess.state != StateSelected && sess.state != StateEditing) {
		return fmt.Errorf("%w: no playlist loaded for editing", shared.ErrInvalidInput)
	}

	if err := s.Delete(ctx, sess.playlist.ID, sess.playlist.UserID); err != nil {
		return err
	}
	sess.state = StateDeleted
	return nil
}

// RenameUser updates a user's display name via a field merge on the record.
func (s *Service) RenameUser(ctx context.Context, userID, name string) error {
	if name == "" {
		return fmt.Errorf("%w: user name is required", shared.ErrValidation)
	}
	if err := s.store.Update(ctx, store.Users, userID, map[string]any{"user_name": name}); err != nil {
		return fmt.Errorf("rename user %s: %w", userID, err)
	}
	return nil
}

// UserWithPlaylists fetches a user and rebuilds the embedded playlist list
// from the canonical collection.
//
// The canonical records are the source of truth: this read path reconciles
// records whose embedded list still holds bare playlist ids (or has drifted
// after a partial failure) by querying the Playlist collection by owner.
func (s *Service) UserWithPlaylists(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.store.Get(ctx, store.Users, userID, &user); err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", userID, err)
	}

	docs, err := s.store.Query(ctx, store.Playlist, "user_id", userID)
	if err != nil {
		return nil, fmt.Errorf("fetch playlists for user %s: %w", userID, err)
	}

	refs := make([]models.PlaylistRef, 0, len(docs))
	for _, doc := range docs {
		var playlist models.Playlist
		if err := doc.Decode(&playlist); err != nil {
			return nil, fmt.Errorf("decode playlist %s: %w", doc.ID, err)
		}
		refs = append(refs, models.EmbedPlaylist(playlist))
	}
	user.Playlists = refs

	return &user, nil
}

// syncEmbedded replaces (or appends) the embedded copy matching the
// canonical playlist inside the owner's record.
func (s *Service) syncEmbedded(ctx context.Context, playlist models.Playlist) error {
	var owner models.User
	if err := s.store.Get(ctx, store.Users, playlist.UserID, &owner); err != nil {
		return err
	}

	replaced := false
	for i, ref := range owner.Playlists {
		if ref.Ref() == playlist.ID {
			owner.Playlists[i] = models.EmbedPlaylist(playlist)
			replaced = true
			break
		}
	}
	if !replaced {
		owner.Playlists = append(owner.Playlists, models.EmbedPlaylist(playlist))
	}

	return s.store.Put(ctx, store.Users, playlist.UserID, owner)
}

// partialFailure reports a divergence between the canonical and embedded
// copies: the first write applied durably, the dependent one did not.
func partialFailure(op, id string, err error) error {
	return fmt.Errorf("%w: %s %s: canonical write applied but embedded copy not synchronized: %v",
		shared.ErrPartialFailure, op, id, err)
}

// dedupeIDs suppresses duplicate ids while preserving first-seen order.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
