package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/desertthunder/mixtape/internal/fixtures"
	"github.com/desertthunder/mixtape/internal/ingest"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/store"
	"github.com/desertthunder/mixtape/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the document store and applies pending migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	if cmd.Bool("rollback") {
		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.RollbackMigration(db); err != nil {
			return err
		}
		r.logger.Info("rolled back most recent migration", "path", config.Database.Path)
		return nil
	}

	if _, err := r.openStore(cmd); err != nil {
		return err
	}

	r.logger.Info("document store ready", "path", config.Database.Path)
	return nil
}

// SetupConfig writes the example configuration file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	return nil
}

// Ingest normalizes the tabular source and reports the resulting entity
// graph without writing anything.
func (r *Runner) Ingest(ctx context.Context, cmd *cli.Command) error {
	rows, err := ingest.ReadFile(cmd.String("csv"))
	if err != nil {
		return err
	}

	result := r.normalizer().Normalize(rows)

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlain("rows:      %d\n", len(rows))
	r.writePlain("tracks:    %d\n", len(result.Tracks))
	r.writePlain("albums:    %d\n", len(result.Albums))
	r.writePlain("playlists: %d\n", len(result.Playlists))
	r.writePlain("skipped:   %d\n", len(result.Errors))
	for _, rowErr := range result.Errors {
		r.writePlain("  %v\n", rowErr)
	}
	return nil
}

// Load runs the full pipeline: read source rows, normalize, synthesize
// fixtures, and bulk-load the four collections.
//
// Collections load independently; a failed upsert in one never blocks the
// others, and the per-collection report accounts for every id.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	config := r.config

	rows, err := ingest.ReadFile(cmd.String("csv"))
	if err != nil {
		return err
	}
	result := r.normalizer().Normalize(rows)
	if len(result.Errors) > 0 {
		r.logger.Warn("skipped malformed rows", "count", len(result.Errors))
	}

	seed := config.Fixtures.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gen := fixtures.NewGenerator(rand.New(rand.NewSource(seed)), nil)

	users := gen.Users(config.Fixtures.UserCount)
	synthetic, err := gen.Playlists(users, result.Tracks, config.Fixtures.PlaylistCount)
	if err != nil {
		return fmt.Errorf("failed to generate fixtures: %w", err)
	}
	allPlaylists := append(result.Playlists, synthetic...)

	r.logger.Info("normalized source",
		"tracks", len(result.Tracks),
		"albums", len(result.Albums),
		"playlists", len(allPlaylists),
		"users", len(users),
	)

	engine := tasks.NewLoadEngine(s)
	opts := tasks.LoadOpts{
		NumWorkers: config.Loader.NumWorkers,
		RateLimit:  config.Loader.RateLimit,
	}

	batches := []struct {
		collection string
		entities   []models.Entity
	}{
		{store.Tracks, toEntities(result.Tracks)},
		{store.Album, toEntities(result.Albums)},
		{store.Playlist, toEntities(allPlaylists)},
		{store.Users, toEntities(users)},
	}

	for _, batch := range batches {
		res, err := r.runLoad(ctx, engine, batch.collection, batch.entities, opts)
		if err != nil {
			return err
		}

		r.writePlain("%-9s %d/%d succeeded", res.Collection, len(res.Succeeded), res.Total)
		if len(res.Failed) > 0 {
			r.writePlain(", %d failed", len(res.Failed))
			for _, failure := range res.Failed {
				r.logger.Error("upsert failed", "collection", res.Collection, "id", failure.ID, "error", failure.Err)
			}
		}
		r.writePlain("\n")
	}

	return nil
}

// runLoad executes one bulk load with progress draining.
func (r *Runner) runLoad(
	ctx context.Context,
	engine *tasks.LoadEngine,
	collection string,
	entities []models.Entity,
	opts tasks.LoadOpts,
) (*tasks.BulkLoadResult, error) {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go r.consumeProgress(ctx, progress, done)

	result, err := engine.Load(ctx, progress, collection, entities, opts)
	close(progress)
	<-done

	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", collection, err)
	}
	return result, nil
}

// Fixtures previews synthetic users and playlists without touching the store.
func (r *Runner) Fixtures(ctx context.Context, cmd *cli.Command) error {
	if cmd.Int("users") < 0 || cmd.Int("playlists") < 0 {
		return fmt.Errorf("%w: fixture counts must be non-negative", shared.ErrInvalidArgument)
	}

	seed := cmd.Int("seed")
	rng := rand.New(rand.NewSource(int64(seed)))
	if seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	gen := fixtures.NewGenerator(rng, nil)

	users := gen.Users(int(cmd.Int("users")))

	var synthetic []models.Playlist
	if count := int(cmd.Int("playlists")); count > 0 {
		rows, err := ingest.ReadFile(cmd.String("csv"))
		if err != nil {
			return fmt.Errorf("playlist fixtures need track data: %w", err)
		}
		result := r.normalizer().Normalize(rows)

		synthetic, err = gen.Playlists(users, result.Tracks, count)
		if err != nil {
			return err
		}
	}

	return r.writeJSON(map[string]any{
		"users":     users,
		"playlists": synthetic,
	}, true)
}

// toEntities widens a concrete entity slice for the loader.
func toEntities[T models.Entity](items []T) []models.Entity {
	out := make([]models.Entity, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
