// Package command defines the coursectl command line. Every invocation loads
// the session kept in a file, runs one command against the course API and
// writes the session back.
package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"course-portal/internal/apiclient"
	"course-portal/internal/config"
	"course-portal/internal/observability"
	"course-portal/internal/router"
	"course-portal/internal/session"
	"course-portal/internal/storage"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

// ErrLoginRequired is returned when a command needs a session that is absent
// or was rejected by the backend
var ErrLoginRequired = errors.New("login required: run 'coursectl login' first")

const runtimeKey = "runtime"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "coursectl",
		Usage:   "Manage courses from the terminal",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LoginCommand(),
			RegisterCommand(),
			LogoutCommand(),
			StatusCommand(),
			CoursesCommand(),
		},
		Before:   setup,
		Metadata: map[string]any{},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "api-url",
			Usage:   "Course API base URL",
			EnvVars: []string{"API_BASE_URL"},
			Value:   config.DefaultAPIBaseURL,
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Request timeout",
			EnvVars: []string{"API_TIMEOUT"},
			Value:   10 * time.Second,
		},
		&cli.StringFlag{
			Name:    "session-file",
			Usage:   "Where the session is kept (default: user config dir)",
			EnvVars: []string{"SESSION_FILE"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json",
			Value:   "table",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn, error",
			EnvVars: []string{"LOG_LEVEL"},
			Value:   "warn",
		},
	}
}

// Runtime is what every command works with
type Runtime struct {
	Store   *session.Store
	Manager *session.Manager
	Client  *apiclient.Client
	Guard   *router.Guard
	Nav     *router.Navigation
	Output  string
	File    string
}

func setup(c *cli.Context) error {
	observability.InitLoggerTo(c.App.ErrWriter, c.String("log-level"), "text")

	path := c.String("session-file")
	if path == "" {
		var err error
		if path, err = config.DefaultSessionFile(); err != nil {
			return fmt.Errorf("no session file location: %w", err)
		}
	}
	kv, err := storage.NewFileStore(path)
	if err != nil {
		return err
	}

	requestID := uuid.NewString()
	c.Context = observability.WithRequestID(c.Context, requestID)

	store := session.NewStore(kv)
	store.Initialize(c.Context)

	client, err := apiclient.NewClient(apiclient.Config{
		BaseURL: c.String("api-url"),
		Timeout: c.Duration("timeout"),
		Headers: map[string]string{"X-Request-ID": requestID},
	})
	if err != nil {
		return err
	}

	nav := router.NewNavigation()
	bound := client.Bind(store, nav)

	c.App.Metadata[runtimeKey] = &Runtime{
		Store:   store,
		Manager: session.NewManager(store, apiclient.NewAuthAPI(bound)),
		Client:  bound,
		Guard: router.NewGuard(router.Routes(router.Components{}), func(*http.Request) bool {
			return store.IsAuthenticated()
		}),
		Nav:    nav,
		Output: c.String("output"),
		File:   path,
	}
	return nil
}

// GetRuntime retrieves the runtime prepared by Before
func GetRuntime(c *cli.Context) *Runtime {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt
	}
	return nil
}

// Navigate asks the guard whether the command's route may be visited
func (rt *Runtime) Navigate(path string) error {
	if d := rt.Guard.Decide(path, rt.Store.IsAuthenticated()); !d.Allow {
		return ErrLoginRequired
	}
	return nil
}

// Finish converts a forced navigation raised during the command into
// ErrLoginRequired
func (rt *Runtime) Finish(err error) error {
	if target, ok := rt.Nav.Target(); ok && target == router.LoginPath {
		if err != nil {
			return fmt.Errorf("%w (%v)", ErrLoginRequired, err)
		}
		return ErrLoginRequired
	}
	return err
}

func commandContext(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
