package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/blackwell-systems/bookctl/internal/api"
	"github.com/blackwell-systems/bookctl/internal/auth"
	"github.com/blackwell-systems/bookctl/internal/cache"
	"github.com/blackwell-systems/bookctl/internal/catalog"
	"github.com/blackwell-systems/bookctl/internal/config"
	"github.com/blackwell-systems/bookctl/internal/logging"
	"github.com/blackwell-systems/bookctl/internal/route"
	"github.com/blackwell-systems/bookctl/internal/session"
	"github.com/blackwell-systems/bookctl/internal/tui"
	"github.com/blackwell-systems/bookctl/internal/unified"
	"github.com/blackwell-systems/bookctl/internal/util"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg      *config.Config
	logger   *zap.Logger
	store    *session.Store
	client   *api.Client
	authMgr  *auth.Manager
	library  *catalog.Library
	router   *route.Router
	cacheMgr *cache.Manager

	// released by the root's PersistentPostRun
	cleanups []func()

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	flagNoColor       bool
	flagNoInteractive bool
	flagConfig        string
	flagBaseURL       string
)

// skipSetup marks commands that only need the config, not a session.
const skipSetup = "skip-setup"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bookctl",
		Short: "Manage a book catalog from the terminal",
		Long: `bookctl is a client for a book catalog service.

Sign in once; the session is kept between runs. Books can be listed,
added, edited and deleted, and covers uploaded, from the command line
or from the interactive interface.

Run 'bookctl' with no arguments to launch the interactive interface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tui.ShouldUseTUI(cmd) {
				return unified.Run(cmd.Context(), unified.Deps{
					Auth:    authMgr,
					Library: library,
					Client:  client,
					Router:  router,
					Cache:   cacheMgr,
					Logger:  logger,
				})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			util.InitColor(flagNoColor)

			if flagConfig != "" {
				if err := os.Setenv("BOOKCTL_CONFIG", util.ExpandHome(flagConfig)); err != nil {
					return err
				}
			}

			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if flagBaseURL != "" {
				cfg.API.BaseURL = flagBaseURL
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if skips(cmd) {
				return nil
			}
			return setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			teardown()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagNoInteractive, "no-interactive", false, "Disable interactive TUI mode")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/bookctl/config.yml)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "Backend base URL (overrides api.base_url)")

	rootCmd.AddCommand(
		newRegisterCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newListCmd(),
		newGetCmd(),
		newAddCmd(),
		newEditCmd(),
		newDeleteCmd(),
		newUploadCmd(),
		newCoverCmd(),
		newImportCmd(),
		newExportCmd(),
		newIndexCmd(),
		newCacheCmd(),
		newConfigCmd(),
		newCompletionCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute is the entry point called from main.
func Execute() {
	err := newRootCmd().ExecuteContext(context.Background())
	// PersistentPostRun is skipped when RunE fails.
	teardown()
	if err != nil {
		fmt.Fprintln(stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func skips(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipSetup] == "true" {
			return true
		}
	}
	return false
}

// setup wires the session store, the HTTP client and everything that
// depends on them.
func setup(ctx context.Context) error {
	var err error
	var closeLog func()
	logger, closeLog, err = logging.Open(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, closeLog)

	store, err = session.Open(ctx, cfg.Session, logger)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	cleanups = append(cleanups, func() { _ = store.Close() })

	client = api.New(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.EffectiveTimeout()),
		api.WithSessionStore(store),
		api.WithLogger(logger),
	)
	authMgr = auth.NewManager(client, store, logger)
	cleanups = append(cleanups, authMgr.Close)

	library = catalog.NewLibrary(client, logger)
	router = route.NewRouter(authMgr, store)
	cacheMgr = cache.New(cfg.Cache.Dir)

	logger.Debug("ready",
		zap.String("base_url", cfg.API.BaseURL),
		zap.String("session_backend", cfg.Session.Backend),
	)
	return nil
}

// teardown releases what setup acquired, newest first.
func teardown() {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	cleanups = nil
}

// requireSignedIn applies the protected-route guard to a command.
func requireSignedIn() error {
	if d := route.Protected(authMgr); !d.Allow {
		return fmt.Errorf("not signed in (run 'bookctl login')")
	}
	return nil
}

// requireSignedOut applies the public-route guard to a command.
func requireSignedOut() error {
	if d := route.Public(authMgr); !d.Allow {
		name := ""
		if u := authMgr.User(); u != nil {
			name = u.Username
		}
		return fmt.Errorf("already signed in as %s (run 'bookctl logout' first)", name)
	}
	return nil
}

// ok prints a green success line.
func ok(format string, a ...interface{}) {
	fmt.Fprintln(stdout, color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(format string, a ...interface{}) {
	fmt.Fprintln(stderr, color.YellowString("!"), fmt.Sprintf(format, a...))
}

// header prints a cyan section heading.
func header(format string, a ...interface{}) {
	fmt.Fprintln(stdout, color.CyanString(fmt.Sprintf(format, a...)))
}

// printField prints one aligned key/value line.
func printField(key, value string) {
	fmt.Fprintf(stdout, "  %-12s %s\n", key+":", value)
}
