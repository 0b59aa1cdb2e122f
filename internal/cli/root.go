// Package cli implements the quill command line client.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/me/quill/internal/api"
	"github.com/me/quill/internal/authn"
	"github.com/me/quill/internal/config"
	"github.com/me/quill/internal/guard"
	"github.com/me/quill/internal/logging"
	"github.com/me/quill/internal/session"
	"github.com/me/quill/internal/store"
)

// routeAnnotation names the policy route a command is gated on.
const routeAnnotation = "quill/route"

func gatedOn(route string) map[string]string {
	return map[string]string{routeAnnotation: route}
}

// app is shared by all commands once the root pre-run has built it.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	session *session.Manager
	api     *api.Client
	policy  guard.Policy
	closer  io.Closer
}

// NewRootCmd creates the root cobra command for the quill CLI.
func NewRootCmd() *cobra.Command {
	var (
		flagConfig    string
		flagServer    string
		flagDebug     bool
		flagLogLevel  string
		flagLogFormat string
	)
	a := &app{}

	root := &cobra.Command{
		Use:   "quill",
		Short: "quill: command line client for the blog service",
		Long:  "quill logs in to the blog service, keeps the session between runs, and reads and manages posts, comments and users.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := flagConfig
			if path == "" {
				path = config.DefaultPath()
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("server") {
				cfg.Server = flagServer
			}
			if flags.Changed("log-level") {
				cfg.Log.Level = flagLogLevel
			}
			if flags.Changed("log-format") {
				cfg.Log.Format = flagLogFormat
			}
			if flagDebug {
				cfg.Log.Level = "debug"
			}
			if err := a.setup(cfg, cmd.ErrOrStderr()); err != nil {
				return err
			}
			if err := a.authorize(cmd); err != nil {
				a.close()
				return err
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default ~/.quill/config.yaml)")
	pf.StringVar(&flagServer, "server", api.DefaultBaseURL, "Blog service API root (or "+config.EnvServer+" env)")
	pf.BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	pf.StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRegisterCmd(a),
		newPostsCmd(a),
		newCommentsCmd(a),
		newAdminCmd(a),
		newServeCmd(a),
	)

	return root
}

// setup builds the logger, credential store, session and API client.
func (a *app) setup(cfg config.Config, logOut io.Writer) error {
	a.cfg = cfg
	a.logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, logOut)

	st, closer, err := store.Open(cfg.Credentials.Backend, cfg.Credentials.Path, a.logger)
	if err != nil {
		return err
	}
	a.closer = closer

	// Logins go out without a bearer token.
	authClient := api.NewClient(cfg.Server, &http.Client{Timeout: cfg.Timeout}, a.logger)
	a.session = session.NewManager(authClient, st, a.logger)
	a.session.Initialize()

	transport := authn.NewTransport(a.session, nil, a.logger)
	a.api = api.NewClient(cfg.Server, transport.Client(cfg.Timeout), a.logger)

	a.policy = guard.DefaultPolicy().Merge(cfg.RoutePolicy())
	return a.policy.Validate()
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// authorize checks the session against the policy entry named by the
// command's route annotation.
func (a *app) authorize(cmd *cobra.Command) error {
	route, ok := cmd.Annotations[routeAnnotation]
	if !ok {
		return nil
	}
	roles, protected := a.policy.Lookup(route)
	if !protected {
		return nil
	}
	err := guard.Check(a.session, roles)
	switch {
	case errors.Is(err, guard.ErrLoginRequired):
		return fmt.Errorf("%s: %w, run `quill login` first", cmd.CommandPath(), err)
	case errors.Is(err, guard.ErrForbidden):
		return fmt.Errorf("%s: %w for role %s (needs %s)", cmd.CommandPath(), err, a.session.Current().Role(), roles)
	}
	return err
}
