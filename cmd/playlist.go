package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/playlists"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/store"
	"github.com/urfave/cli/v3"
)

// PlaylistCreate creates a playlist for a user and syncs the embedded copy.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service(cmd)
	if err != nil {
		return err
	}

	fields := playlists.Fields{
		Name:     cmd.String("name"),
		Genre:    cmd.String("genre"),
		Subgenre: cmd.String("subgenre"),
	}

	playlist, err := svc.Create(ctx, cmd.String("owner"), fields, cmd.StringSlice("track"))
	if err != nil {
		return err
	}

	return r.writeJSON(playlist, true)
}

// PlaylistEdit loads an editing session, applies the requested field and
// track changes, and saves both copies.
func (r *Runner) PlaylistEdit(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service(cmd)
	if err != nil {
		return err
	}

	sess, err := svc.LoadSession(ctx, cmd.String("id"))
	if err != nil {
		return err
	}

	if name := cmd.String("name"); name != "" {
		if err := sess.SetName(name); err != nil {
			return err
		}
	}
	if genre := cmd.String("genre"); genre != "" {
		if err := sess.SetGenre(genre); err != nil {
			return err
		}
	}
	if subgenre := cmd.String("subgenre"); subgenre != "" {
		if err := sess.SetSubgenre(subgenre); err != nil {
			return err
		}
	}

	for _, trackID := range cmd.StringSlice("add-track") {
		var track models.Track
		if err := r.store.Get(ctx, store.Tracks, trackID, &track); err != nil {
			return fmt.Errorf("cannot add track: %w", err)
		}
		if err := sess.AddTrack(track); err != nil {
			return err
		}
	}
	for _, trackID := range cmd.StringSlice("remove-track") {
		if err := sess.RemoveTrack(trackID); err != nil {
			return err
		}
	}

	if err := svc.Save(ctx, sess); err != nil {
		return err
	}

	return r.writeJSON(sess.Playlist(), true)
}

// PlaylistDelete removes a playlist from both locations.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service(cmd)
	if err != nil {
		return err
	}

	sess, err := svc.LoadSession(ctx, cmd.String("id"))
	if err != nil {
		return err
	}

	if err := svc.DeleteSession(ctx, sess); err != nil {
		return err
	}

	r.writePlain("deleted %s\n", cmd.String("id"))
	return nil
}

// PlaylistShow prints one canonical playlist record.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openStore(cmd)
	if err != nil {
		return err
	}

	var playlist models.Playlist
	if err := s.Get(ctx, store.Playlist, cmd.String("id"), &playlist); err != nil {
		return err
	}
	return r.writeJSON(playlist, true)
}

// PlaylistList prints every canonical playlist.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openStore(cmd)
	if err != nil {
		return err
	}

	docs, err := s.ScanAll(ctx, store.Playlist)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		var playlist models.Playlist
		if err := doc.Decode(&playlist); err != nil {
			return err
		}
		r.writePlain("%s\t%s\t%s/%s\t%d tracks\n",
			playlist.ID, playlist.Name, playlist.Genre, playlist.Subgenre, len(playlist.PlaylistTracks))
	}
	return nil
}

// TrackSearch runs the substring lookup over the track catalog.
func (r *Runner) TrackSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	svc, err := r.service(cmd)
	if err != nil {
		return err
	}

	matches, err := svc.SearchTracks(ctx, query)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(matches, true)
	}

	for _, track := range matches {
		r.writePlain("%s\t%s\t%s\n", track.ID, track.Name, track.ArtistName)
	}
	r.writePlain("%d match(es)\n", len(matches))
	return nil
}

// UserShow prints a user with playlists reconciled from the canonical collection.
func (r *Runner) UserShow(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service(cmd)
	if err != nil {
		return err
	}

	user, err := svc.UserWithPlaylists(ctx, cmd.String("id"))
	if err != nil {
		return err
	}
	return r.writeJSON(user, true)
}

// UserList prints every user record.
func (r *Runner) UserList(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openStore(cmd)
	if err != nil {
		return err
	}

	docs, err := s.ScanAll(ctx, store.Users)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		var user models.User
		if err := doc.Decode(&user); err != nil {
			return err
		}
		r.writePlain("%s\t%s\t%s\t%d playlists\n", user.ID, user.UserName, user.Email, len(user.Playlists))
	}
	return nil
}

// UserRename updates a user's display name.
func (r *Runner) UserRename(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service(cmd)
	if err != nil {
		return err
	}

	if err := svc.RenameUser(ctx, cmd.String("id"), cmd.String("name")); err != nil {
		return err
	}

	r.writePlain("renamed %s\n", cmd.String("id"))
	return nil
}
