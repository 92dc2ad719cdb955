package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tte/config"
	"tte/report"
	"tte/storage"
	"tte/tracker"
)

// Repository is a tracker.Repository that holds a connection.
type Repository interface {
	tracker.Repository
	Close() error
}

// Opener connects to the configured backend.
type Opener func(ctx context.Context, settings config.Settings, logger *slog.Logger) (Repository, error)

// OpenBackend is the default Opener.
func OpenBackend(ctx context.Context, settings config.Settings, logger *slog.Logger) (Repository, error) {
	if settings.Backend == config.BackendSQLite {
		repo, err := storage.OpenSQLite(settings.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	repo, err := storage.OpenEdgeDB(ctx, settings.EdgeDBDSN, logger)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// App holds what one invocation needs. The zero value is not usable; use
// NewApp.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	Open   Opener

	configPath string
	backend    string
	logLevel   string

	settings config.Settings
	logger   *slog.Logger
	session  *config.SessionFile
	repo     Repository
}

func NewApp() *App {
	return &App{Stdout: os.Stdout, Stderr: os.Stderr, Open: OpenBackend}
}

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "tte",
		Short:         "Track time against projects",
		Long:          "tte starts and stops timed entries against named projects and lists them with their durations.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.close()
		},
	}
	root.SetOut(app.Stdout)
	root.SetErr(app.Stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "config file (default $"+config.PathEnvVar+" or the user config dir)")
	flags.StringVar(&app.backend, "backend", "", "storage backend: edgedb or sqlite")
	flags.StringVar(&app.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newLoginCommand(app),
		newLogoutCommand(app),
		newStartCommand(app),
		newStopCommand(app),
		newListCommand(app),
		newProjectCommand(app),
		newDashboardCommand(app),
	)
	return root
}

// RunCLI parses args and executes the matching command.
func RunCLI(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp()
	// Post-run hooks are skipped when a command fails.
	defer app.close()

	root := NewRootCommand(app)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// Message turns an error into the line shown to the user.
func Message(err error) string {
	switch {
	case errors.Is(err, tracker.ErrNotLoggedIn):
		return "Not logged in. Run `tte login`."
	case errors.Is(err, tracker.ErrAccountDeleted):
		return "Your account has been deleted. Create new account by running `tte login`."
	default:
		return err.Error()
	}
}

func (a *App) setup() error {
	path := a.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	settings, err := config.LoadSettings(path)
	if err != nil {
		return err
	}
	if a.backend != "" {
		if a.backend != config.BackendEdgeDB && a.backend != config.BackendSQLite {
			return fmt.Errorf("unknown backend %q (want %s or %s)", a.backend, config.BackendEdgeDB, config.BackendSQLite)
		}
		settings.Backend = a.backend
	}
	if a.logLevel != "" {
		if err := settings.LogLevel.UnmarshalText([]byte(a.logLevel)); err != nil {
			return fmt.Errorf("invalid --log-level %q: %w", a.logLevel, err)
		}
	}

	a.settings = settings
	a.logger = slog.New(slog.NewTextHandler(a.Stderr, &slog.HandlerOptions{Level: settings.LogLevel}))
	a.session = config.NewSessionFile(path)
	a.logger.Debug("settings loaded", "config", path, "backend", settings.Backend)
	return nil
}

func (a *App) close() error {
	if a.repo == nil {
		return nil
	}
	err := a.repo.Close()
	a.repo = nil
	return err
}

// repository connects on first use; logout never needs the store.
func (a *App) repository(ctx context.Context) (Repository, error) {
	if a.repo != nil {
		return a.repo, nil
	}
	repo, err := a.Open(ctx, a.settings, a.logger)
	if err != nil {
		return nil, err
	}
	a.repo = repo
	return repo, nil
}

// withTimeout bounds one command by the configured timeout.
func (a *App) withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.settings.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.settings.Timeout)
}

// authenticate resolves and validates the logged-in user before any
// command other than login and logout.
func (a *App) authenticate(ctx context.Context) (tracker.UserID, Repository, error) {
	sess, err := a.session.Load()
	if err != nil {
		return tracker.UserID{}, nil, err
	}
	sessions := tracker.NewSessions(nil, a.logger)
	if _, err := sessions.CurrentUser(sess); err != nil {
		return tracker.UserID{}, nil, err
	}

	repo, err := a.repository(ctx)
	if err != nil {
		return tracker.UserID{}, nil, err
	}
	user, err := tracker.NewSessions(repo, a.logger).Authenticate(ctx, sess)
	if err != nil {
		return tracker.UserID{}, nil, err
	}
	return user, repo, nil
}

func (a *App) entries(repo tracker.Repository) *tracker.Entries {
	entries := tracker.NewEntries(repo, a.logger)
	entries.Atomic = a.settings.AtomicStart
	return entries
}

func (a *App) printEntries(ctx context.Context, repo tracker.Repository, user tracker.UserID, format report.Format) error {
	list, err := a.entries(repo).List(ctx, user)
	if err != nil {
		return err
	}
	return report.WriteEntries(a.Stdout, report.View(list), format)
}

func (a *App) printProjects(ctx context.Context, repo tracker.Repository, user tracker.UserID, format report.Format) error {
	projects, err := tracker.NewProjects(repo, a.logger).List(ctx, user)
	if err != nil {
		return err
	}
	return report.WriteProjects(a.Stdout, projects, format)
}

// addFormatFlag registers --format on fs.
func addFormatFlag(fs *pflag.FlagSet, target *string) {
	fs.StringVarP(target, "format", "f", string(report.FormatTable), "output format: table, json or yaml")
}
