package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/ingest"
	"github.com/desertthunder/mixtape/internal/playlists"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/store"
	"github.com/desertthunder/mixtape/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
	store  store.Store
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
	Store  store.Store // injected by tests; opened lazily from config otherwise
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
		store:  opts.Store,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, ingestCommand, loadCommand, fixturesCommand, playlistCommand, trackCommand, userCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads the --config flag, falling back to defaults when the file
// does not exist.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	path := cmd.String("config")
	if path == "" {
		return r.config
	}
	if _, err := os.Stat(path); err != nil {
		return r.config
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		return r.config
	}
	r.config = config
	return config
}

// openStore returns the injected store or opens the SQLite-backed one from
// configuration, applying pending migrations.
func (r *Runner) openStore(cmd *cli.Command) (store.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	config := r.loadConfig(cmd)
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := store.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate document store: %w", err)
	}

	r.store = store.NewSQLite(db)
	return r.store, nil
}

func (r *Runner) service(cmd *cli.Command) (*playlists.Service, error) {
	s, err := r.openStore(cmd)
	if err != nil {
		return nil, err
	}
	return playlists.NewService(s, shared.WithLogger(r.logger, "component", "playlists")), nil
}

// normalizer builds the row normalizer with a component-tagged logger.
func (r *Runner) normalizer() *ingest.Normalizer {
	return ingest.NewNormalizer(shared.WithLogger(r.logger, "component", "ingest"))
}

func (r *Runner) engine(cmd *cli.Command) (*tasks.LoadEngine, error) {
	s, err := r.openStore(cmd)
	if err != nil {
		return nil, err
	}
	return tasks.NewLoadEngine(s), nil
}

// consumeProgress drains progress updates into debug logs until the channel closes.
func (r *Runner) consumeProgress(ctx context.Context, progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case update, ok := <-progress:
			if !ok {
				return
			}
			r.logger.Debug(update.Message, "phase", update.Phase.String(), "step", update.Step, "total", update.Total)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
