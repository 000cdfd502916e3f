package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/store"
	tu "github.com/desertthunder/mixtape/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner builds a runner over an in-memory store with output captured
// in a buffer.
func newTestRunner(config *shared.Config) (*Runner, *bytes.Buffer, *store.Memory) {
	output := &bytes.Buffer{}
	mem := store.NewMemory()

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
		Store:  mem,
	})
	return runner, output, mem
}

// run executes one CLI invocation against a fresh command tree.
func run(ctx context.Context, r *Runner, args ...string) error {
	app := &cli.Command{
		Name:     "mixtape",
		Commands: r.register(),
	}
	return app.Run(ctx, append([]string{"mixtape"}, args...))
}

// writeSampleCSV puts the shared sample source into a temp file.
func writeSampleCSV(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.csv")
	if err := os.WriteFile(path, []byte(tu.SampleCSV()), 0644); err != nil {
		t.Fatalf("failed to write sample csv: %v", err)
	}
	return path
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			mem := store.NewMemory()

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
				Store:  mem,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.store != mem {
				t.Error("expected store to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := output.String(); got != `{"key":"value"}`+"\n" {
				t.Errorf("unexpected output %q", got)
			}
		})

		t.Run("handles marshal error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Fatal("expected error for non-serializable data")
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("test"); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})
}

func TestIngestCommand(t *testing.T) {
	ctx := context.Background()
	csvPath := writeSampleCSV(t)

	t.Run("reports the entity graph without writing", func(t *testing.T) {
		runner, output, mem := newTestRunner(nil)

		err := run(ctx, runner, "ingest", "--csv", csvPath)
		if err != nil {
			t.Fatalf("ingest failed: %v", err)
		}

		for _, want := range []string{"tracks:    4", "albums:    2", "playlists: 2", "skipped:   1"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output.String())
			}
		}

		docs, err := mem.ScanAll(ctx, store.Tracks)
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if len(docs) != 0 {
			t.Errorf("ingest must not persist, found %d documents", len(docs))
		}
	})

	t.Run("missing source file", func(t *testing.T) {
		runner, _, _ := newTestRunner(nil)
		if err := run(ctx, runner, "ingest", "--csv", "/nonexistent.csv"); err == nil {
			t.Error("expected an error for a missing source")
		}
	})
}

func TestLoadCommand(t *testing.T) {
	ctx := context.Background()
	csvPath := writeSampleCSV(t)

	config := shared.DefaultConfig()
	config.Fixtures.UserCount = 3
	config.Fixtures.PlaylistCount = 2
	config.Fixtures.Seed = 42
	config.Loader.RateLimit = 10000

	runner, output, mem := newTestRunner(config)

	if err := run(ctx, runner, "load", "--csv", csvPath); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	counts := map[string]int{
		store.Tracks:   3, // t1 appears in two rows but upserts to one document
		store.Album:    2,
		store.Playlist: 4, // 2 ingested + 2 synthetic
		store.Users:    3,
	}

	for collection, want := range counts {
		docs, err := mem.ScanAll(ctx, collection)
		if err != nil {
			t.Fatalf("scan %s failed: %v", collection, err)
		}
		if len(docs) != want {
			t.Errorf("%s: expected %d documents, got %d", collection, want, len(docs))
		}
	}

	if !strings.Contains(output.String(), "succeeded") {
		t.Errorf("expected a per-collection report, got:\n%s", output.String())
	}

	// Ingested playlists carry the external owner sentinel.
	var p1 models.Playlist
	if err := mem.Get(ctx, store.Playlist, "p1", &p1); err != nil {
		t.Fatalf("fetch p1 failed: %v", err)
	}
	if p1.UserID != models.ExternalOwner {
		t.Errorf("expected external owner, got %q", p1.UserID)
	}
}

func TestFixturesCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("previews users without the store", func(t *testing.T) {
		runner, output, mem := newTestRunner(nil)

		if err := run(ctx, runner, "fixtures", "--users", "2", "--playlists", "0", "--seed", "42"); err != nil {
			t.Fatalf("fixtures failed: %v", err)
		}
		if !strings.Contains(output.String(), `"user_name"`) {
			t.Errorf("expected synthesized users in output, got:\n%s", output.String())
		}

		docs, err := mem.ScanAll(ctx, store.Users)
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if len(docs) != 0 {
			t.Errorf("preview should not write, found %d documents", len(docs))
		}
	})

	t.Run("rejects negative counts", func(t *testing.T) {
		runner, _, _ := newTestRunner(nil)

		err := run(ctx, runner, "fixtures", "--users=-1")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestPlaylistCommands(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, mem *store.Memory) {
		t.Helper()
		user := models.User{ID: "user_1", UserName: "User Name 1", Email: "user1@example.com"}
		if err := mem.Put(ctx, store.Users, user.ID, user); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		for _, track := range []models.Track{
			{ID: "t1", Name: "Midnight City", ArtistName: "M83"},
			{ID: "t2", Name: "Breezeblocks", ArtistName: "alt-J"},
		} {
			if err := mem.Put(ctx, store.Tracks, track.ID, track); err != nil {
				t.Fatalf("seed failed: %v", err)
			}
		}
	}

	// createdID digs the canonical playlist id out of the store.
	createdID := func(t *testing.T, mem *store.Memory) string {
		t.Helper()
		docs, err := mem.ScanAll(ctx, store.Playlist)
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if len(docs) != 1 {
			t.Fatalf("expected 1 playlist, got %d", len(docs))
		}
		return docs[0].ID
	}

	t.Run("create then edit keeps both copies in sync", func(t *testing.T) {
		runner, _, mem := newTestRunner(nil)
		seed(t, mem)

		err := run(ctx, runner, "playlist", "create",
			"--owner", "user_1", "--name", "Mix", "--genre", "Pop", "--subgenre", "Synthpop",
			"--track", "t1",
		)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		id := createdID(t, mem)

		err = run(ctx, runner, "playlist", "edit",
			"--id", id, "--name", "Evening Mix", "--add-track", "t2",
		)
		if err != nil {
			t.Fatalf("edit failed: %v", err)
		}

		var canonical models.Playlist
		if err := mem.Get(ctx, store.Playlist, id, &canonical); err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if canonical.Name != "Evening Mix" || len(canonical.PlaylistTracks) != 2 {
			t.Errorf("unexpected canonical record: %+v", canonical)
		}

		var owner models.User
		if err := mem.Get(ctx, store.Users, "user_1", &owner); err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if len(owner.Playlists) != 1 || owner.Playlists[0].Snapshot == nil {
			t.Fatalf("unexpected embedded list: %+v", owner.Playlists)
		}
		if owner.Playlists[0].Snapshot.Name != "Evening Mix" {
			t.Errorf("embedded copy not synchronized: %q", owner.Playlists[0].Snapshot.Name)
		}
	})

	t.Run("delete removes both copies", func(t *testing.T) {
		runner, output, mem := newTestRunner(nil)
		seed(t, mem)

		err := run(ctx, runner, "playlist", "create",
			"--owner", "user_1", "--name", "Mix", "--genre", "Pop", "--subgenre", "Synthpop",
			"--track", "t1",
		)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		id := createdID(t, mem)

		if err := run(ctx, runner, "playlist", "delete", "--id", id); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if !strings.Contains(output.String(), "deleted "+id) {
			t.Errorf("expected deletion confirmation, got:\n%s", output.String())
		}

		docs, err := mem.ScanAll(ctx, store.Playlist)
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if len(docs) != 0 {
			t.Errorf("expected no canonical playlists, got %d", len(docs))
		}

		var owner models.User
		if err := mem.Get(ctx, store.Users, "user_1", &owner); err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if len(owner.Playlists) != 0 {
			t.Errorf("expected no embedded playlists, got %d", len(owner.Playlists))
		}
	})

	t.Run("track search", func(t *testing.T) {
		runner, output, mem := newTestRunner(nil)
		seed(t, mem)

		if err := run(ctx, runner, "track", "search", "city"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if !strings.Contains(output.String(), "Midnight City") {
			t.Errorf("expected a match for 'city', got:\n%s", output.String())
		}
		if !strings.Contains(output.String(), "1 match(es)") {
			t.Errorf("expected a match count, got:\n%s", output.String())
		}
	})

	t.Run("track search requires a query", func(t *testing.T) {
		runner, _, mem := newTestRunner(nil)
		seed(t, mem)

		err := run(ctx, runner, "track", "search", "   ")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("user rename and show", func(t *testing.T) {
		runner, output, mem := newTestRunner(nil)
		seed(t, mem)

		if err := run(ctx, runner, "user", "rename", "--id", "user_1", "--name", "Renamed"); err != nil {
			t.Fatalf("rename failed: %v", err)
		}

		output.Reset()
		if err := run(ctx, runner, "user", "show", "--id", "user_1"); err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(output.String(), `"user_name": "Renamed"`) {
			t.Errorf("expected renamed user in output, got:\n%s", output.String())
		}
	})
}
