package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notesync/internal/adapters/driving/oauth"
	"github.com/custodia-labs/notesync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/notesync/internal/core/domain"
)

// loginTimeout bounds how long auth login waits for the browser redirect.
const loginTimeout = 5 * time.Minute

// openBrowser is replaced in tests.
var openBrowser = oauth.OpenBrowser

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Google accounts",
	Long: `Sign in to Google, list signed-in accounts and sign out.

Sign-in needs an OAuth client of type "Desktop app". Store its
credentials first:

  notesync config set google.client_id YOUR_CLIENT_ID
  notesync config set google.client_secret YOUR_CLIENT_SECRET`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to a Google account",
	Long: `Open the Google consent page and store the account once access is
granted. The redirect is received on a local port.

Examples:
  notesync auth login
  notesync auth login --no-browser`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List signed-in accounts",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [account]",
	Short: "Sign out of an account",
	Long: `Forget an account's tokens and sync cursor. Local notes are kept.
Without an argument the only signed-in account is signed out.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthLogout,
}

var (
	authLoginPort      int
	authLoginNoBrowser bool
)

func init() {
	authLoginCmd.Flags().IntVar(&authLoginPort, "port", 0, "callback port (0 = pick a free port)")
	authLoginCmd.Flags().BoolVar(&authLoginNoBrowser, "no-browser", false, "print the URL instead of opening a browser")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	rt := active
	st := styles.DefaultStyles()

	server := oauth.NewCallbackServer(authLoginPort, "")
	if err := server.Start(); err != nil {
		return fmt.Errorf("start callback server: %w", err)
	}
	defer server.Stop() //nolint:errcheck

	flow, err := rt.Accounts.BeginLogin(server.RedirectURI())
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			return fmt.Errorf("%w: set google.client_id with 'notesync config set'", err)
		}
		return err
	}
	server.ExpectState(flow.State())

	url := flow.AuthURL()
	if authLoginNoBrowser {
		cmd.Println("Open this URL to sign in:")
		cmd.Println(url)
	} else {
		cmd.Println("Opening browser to sign in...")
		if err := openBrowser(url); err != nil {
			cmd.Println("Could not open a browser. Open this URL to sign in:")
			cmd.Println(url)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
	defer cancel()
	code, err := server.WaitForCode(ctx)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	account, err := rt.Accounts.CompleteLogin(ctx, flow, code)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	cmd.Println(st.Success.Render("✓ Signed in as " + account.ID))
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	rt := active
	st := styles.DefaultStyles()

	accounts, err := rt.Accounts.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		cmd.Println(st.Muted.Render("Not signed in. Run 'notesync auth login'."))
		return nil
	}

	for _, a := range accounts {
		marker := " "
		if a.ID == rt.Settings.DefaultAccount || (rt.Settings.DefaultAccount == "" && a.ID == accounts[0].ID) {
			marker = "*"
		}
		state := st.Success.Render("valid")
		if a.Token.IsExpired() {
			if a.Token.CanRefresh() {
				state = st.Muted.Render("refresh on next sync")
			} else {
				state = st.Error.Render("expired, sign in again")
			}
		}
		cmd.Printf("%s %s  %s\n", marker, a.ID, state)
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	rt := active

	var id string
	if len(args) == 1 {
		id = args[0]
	} else {
		accounts, err := rt.Accounts.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		switch len(accounts) {
		case 0:
			return domain.ErrAuthRequired
		case 1:
			id = accounts[0].ID
		default:
			return errors.New("several accounts are signed in, name the one to sign out")
		}
	}

	if err := rt.Accounts.Logout(cmd.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("account %s is not signed in", id)
		}
		return fmt.Errorf("sign out: %w", err)
	}
	cmd.Printf("Signed out of %s\n", id)
	return nil
}
