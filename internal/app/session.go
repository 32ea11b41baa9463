package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/blackwell-systems/bookctl/internal/auth"
	"github.com/blackwell-systems/bookctl/internal/config"
	"github.com/blackwell-systems/bookctl/internal/util"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword reads a line from the terminal without echo.
var readPassword = func() (string, error) {
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(stderr)
	return string(b), err
}

// promptLine reads one visible line from stdin.
var promptLine = func() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line), err
}

func prompt(label string, secret bool) (string, error) {
	if !util.IsStdinTTY() {
		return "", fmt.Errorf("%s required (pass it as a flag when stdin is not a terminal)", strings.ToLower(label))
	}
	fmt.Fprintf(stderr, "%s: ", label)
	if secret {
		return readPassword()
	}
	return promptLine()
}

func newRegisterCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account on the catalog service.

Registering does not sign you in; run 'bookctl login' afterwards.

Usernames are 1-50 letters, digits or underscores. Passwords are 6-100
characters. Omitted values are prompted for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSignedOut(); err != nil {
				return err
			}

			var err error
			if username == "" {
				if username, err = prompt("Username", false); err != nil {
					return err
				}
			}
			confirm := password
			if password == "" {
				if password, err = prompt("Password", true); err != nil {
					return err
				}
				if confirm, err = prompt("Confirm password", true); err != nil {
					return err
				}
			}

			if err := auth.ValidateRegistration(username, password, confirm); err != nil {
				return err
			}
			user, err := authMgr.Register(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			ok("Account %s created", color.CyanString(user.Username))
			fmt.Fprintln(stdout, "Sign in with: bookctl login -u", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSignedOut(); err != nil {
				return err
			}

			var err error
			if username == "" {
				if username, err = prompt("Username", false); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt("Password", true); err != nil {
					return err
				}
			}

			if err := auth.ValidateCredentials(username, password); err != nil {
				return err
			}
			if err := authMgr.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			ok("Signed in as %s", color.CyanString(authMgr.User().Username))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wasSignedIn := authMgr.IsAuthenticated()
			authMgr.Logout()
			if wasSignedIn {
				ok("Signed out")
			} else {
				fmt.Fprintln(stdout, "Not signed in.")
			}
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the backend and session in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			header("bookctl status")
			printField("backend", cfg.API.BaseURL)
			printField("timeout", cfg.API.EffectiveTimeout().String())

			sessionWhere := cfg.Session.Backend
			if cfg.Session.Backend != config.BackendMemory {
				sessionWhere += " (" + cfg.Session.EffectiveSessionPath() + ")"
			}
			printField("session", sessionWhere)
			printField("cache", cacheMgr.BaseDir())

			s := authMgr.Session()
			switch {
			case s.Authenticated():
				printField("signed in", color.GreenString(s.User.Username))
			case store.HasToken():
				printField("signed in", color.YellowString("incomplete session (run 'bookctl login')"))
			default:
				printField("signed in", color.YellowString("no"))
			}
			return nil
		},
	}
}
