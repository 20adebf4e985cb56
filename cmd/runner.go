package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/streamsavvy/internal/credentials"
	"github.com/desertthunder/streamsavvy/internal/repositories"
	"github.com/desertthunder/streamsavvy/internal/services"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/desertthunder/streamsavvy/internal/state"
	"github.com/desertthunder/streamsavvy/internal/store"
	"github.com/desertthunder/streamsavvy/internal/tasks"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Store-backed collaborators are built on first use so commands like setup and serve never open the store.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	fs         afero.Fs
	logger     *log.Logger
	output     io.Writer

	catalog services.CatalogService
	custom  *services.MockAPIClient
	breach  *services.BreachService

	once          sync.Once
	openErr       error
	store         *store.Store
	identities    *repositories.IdentityRepository
	lifecycle     *state.Lifecycle
	watchlist     *state.Reconciler
	notifications *state.Notifications
	notifier      *state.TrendingNotifier
	engine        *tasks.RefreshEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Fs         afero.Fs
	Logger     *log.Logger
	Output     io.Writer
	Store      *store.Store           // Opened from Config when nil
	Catalog    services.CatalogService // Built from Config when nil
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
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		fs:         opts.Fs,
		logger:     opts.Logger,
		output:     opts.Output,
		store:      opts.Store,
		catalog:    opts.Catalog,
	}

	if r.catalog == nil {
		r.catalog = services.NewCatalogClient(opts.Config.Catalog, opts.HTTPClient, opts.Logger)
	}
	r.custom = services.NewMockAPIClient(opts.Config.MockAPI.BaseURL, opts.HTTPClient, opts.Logger)
	if opts.Config.Breach.Enabled {
		r.breach = services.NewBreachService(opts.Config.Breach.BaseURL, opts.HTTPClient, services.NewBreachCache(), opts.Logger)
	}

	return r
}

// open builds the store and everything layered on it. Safe to call from every command.
func (r *Runner) open() error {
	r.once.Do(func() {
		if r.store == nil {
			s, err := store.Open(r.config, r.logger)
			if err != nil {
				r.openErr = fmt.Errorf("failed to open store: %w", err)
				return
			}
			r.store = s
		}

		r.identities = repositories.NewIdentityRepository(r.store)
		hasher := credentials.NewHasher(credentials.DefaultParams)

		if r.config.Identity.SeedDemo {
			r.seedDemo(hasher)
		}

		opts := state.LifecycleOpts{Store: r.store, Identities: r.identities, Verifier: hasher, Logger: r.logger}
		if r.breach != nil {
			opts.Breach = r.breach
		}
		r.lifecycle = state.NewLifecycle(opts)
		r.watchlist = state.NewReconciler(r.store)
		r.notifications = state.NewNotifications(r.store)
		r.notifier = state.NewTrendingNotifier(r.catalog, r.store, r.notifications)
		r.engine = tasks.NewRefreshEngine(tasks.RefreshEngineOpts{
			Catalog:   r.catalog,
			Watchlist: r.watchlist,
			Notifier:  r.notifier,
			Fs:        r.fs,
			Logger:    r.logger,
			RateLimit: r.config.Catalog.RateLimit,
		})
	})
	return r.openErr
}

func (r *Runner) seedDemo(hasher *credentials.Hasher) {
	if _, err := r.identities.FindByEmail(repositories.DemoEmail); err == nil {
		return
	}
	hash, err := hasher.Hash(repositories.DemoPassword)
	if err != nil {
		r.logger.Warn("failed to hash demo password", "error", err)
		return
	}
	if _, err := r.identities.SeedDemo(hash); err != nil {
		r.logger.Warn("failed to seed demo identity", "error", err)
		return
	}
	r.logger.Info("seeded demo identity", "email", repositories.DemoEmail)
}

// Close releases the store, if one was opened.
func (r *Runner) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, watchlistCommand, catalogCommand, customCommand, notificationsCommand, serveCommand, tuiCommand,
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

// drainProgress prints updates until ch is closed; the returned channel closes when printing is done.
func (r *Runner) drainProgress(ch <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range ch {
			r.writePlain("%s\n", update.Message)
		}
	}()
	return done
}
