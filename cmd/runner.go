package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/session"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	store      session.Store
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	flows   *tasks.Flows
	syncer  *tasks.Synchronizer
	library *tasks.Library
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB       // Nil runs without persistence
	Store      session.Store // Defaults to the SQLite store when DB is set
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout.Duration}
	}
	if opts.Store == nil {
		if opts.DB != nil {
			opts.Store = session.NewSQLiteStore(opts.DB, opts.Logger)
		} else {
			opts.Store = session.Unavailable{}
		}
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		store:      opts.Store,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.wire()
	return r
}

// wire builds the API client and task layer from the current store and logger.
func (r *Runner) wire() {
	if r.api == nil {
		r.api = services.NewAPIService(r.config.API.BaseURL, r.httpClient, nil).
			WithLimiter(services.NewLimiter(r.config.API.RateLimit, r.config.API.Burst))
	}
	r.api = r.api.WithTokens(session.Tokens(r.store)).WithLogger(r.logger)

	var cache tasks.MovieCache
	if r.db != nil {
		cache = repositories.NewMovieRepository(r.db)
	}

	r.flows = tasks.NewFlows(r.api, r.store, r.logger)
	r.syncer = tasks.NewSynchronizer(r.api, r.store, r.logger)
	r.library = tasks.NewLibrary(r.api, r.store, cache, r.logger)
}

// SetLogger replaces the logger used by the runner and everything it wired.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.wire()
}

// SetStore replaces the session store.
func (r *Runner) SetStore(s session.Store) {
	r.store = s
	r.wire()
}

// Before applies global flags before any command runs.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if cmd.Bool("ephemeral") {
		r.logger.Debug("using in-memory session store")
		r.SetStore(session.NewMemoryStore())
	}
	return ctx, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, moviesCommand, favoritesCommand, profileCommand, exportCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// reportProgress drains progress updates to the logger until the channel is closed.
func (r *Runner) reportProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for u := range progress {
		r.logger.Info(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
	}
}
