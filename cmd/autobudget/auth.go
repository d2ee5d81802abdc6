package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Veraticus/autobudget/internal/auth"
	"github.com/Veraticus/autobudget/internal/cli"
	"github.com/Veraticus/autobudget/internal/config"
	"github.com/Veraticus/autobudget/internal/sheets"
	"github.com/spf13/cobra"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage credentials",
		Long:  `Sign in to the identity provider that guards the budget backend, and authorize Google Sheets exports.`,
	}

	cmd.AddCommand(authLoginCmd())
	cmd.AddCommand(authLogoutCmd())
	cmd.AddCommand(authStatusCmd())
	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authLoginCmd() *cobra.Command {
	var password bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the budget backend",
		Long: `Sign in through the identity provider.

By default a browser window opens for the authorization code flow and a
local server receives the callback. With --password the username and
password are asked for on the terminal instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			cfg, err := config.LoadAuthConfig()
			if err != nil {
				return err
			}
			if cfg.StaticToken != "" {
				fmt.Fprintln(out, cli.FormatWarning("A static token is configured; it takes precedence over a login."))
			}

			if password {
				prompter := cli.NewPrompter(cmd.InOrStdin(), out)
				username, err := prompter.Ask(ctx, "Username", false)
				if err != nil {
					return err
				}
				secret, err := prompter.Ask(ctx, "Password", false)
				if err != nil {
					return err
				}
				if _, err := auth.LoginPassword(ctx, cfg, username, secret); err != nil {
					return err
				}
			} else {
				if _, err := auth.Login(ctx, cfg, browserOpener(out)); err != nil {
					return err
				}
			}

			fmt.Fprintln(out, cli.FormatSuccess("Signed in"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&password, "password", false, "Sign in with username and password instead of the browser")

	return cmd
}

func authLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadAuthConfig()
			if err != nil {
				return err
			}
			if err := auth.Logout(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Signed out"))
			return nil
		},
	}
}

func authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where credentials come from",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadAuthConfig()
			if err != nil {
				return err
			}
			printAuthStatus(cmd.OutOrStdout(), auth.GetStatus(cfg, time.Now()))
			return nil
		},
	}
}

func printAuthStatus(w io.Writer, st auth.Status) {
	switch st.Origin {
	case auth.OriginStatic:
		fmt.Fprintln(w, cli.FormatSuccess("Using a static token from configuration"))
		return
	case auth.OriginNone:
		fmt.Fprintln(w, cli.FormatWarning("Not signed in. Run 'autobudget auth login'."))
		return
	}

	title := cli.KeyIcon + " Signed in"
	if !st.Authorized {
		title = cli.ErrorIcon + " Saved token is no longer usable. Run 'autobudget auth login'."
	}

	lines := []string{"Token file: " + st.TokenFile}
	if !st.Expiry.IsZero() {
		state := "valid until"
		if st.Expired {
			state = "expired at"
		}
		lines = append(lines, fmt.Sprintf("Access token %s %s", state, st.Expiry.Local().Format(time.RFC1123)))
	}
	if st.Refresh {
		lines = append(lines, "Refresh token: present")
	} else {
		lines = append(lines, "Refresh token: none")
	}
	fmt.Fprintln(w, cli.RenderBox(title, strings.Join(lines, "\n")))
}

func authSheetsCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authorize Google Sheets exports",
		Long: `Authorize autobudget to write analytics to Google Sheets.

Needs sheets.client_id and sheets.client_secret (or GOOGLE_SHEETS_CLIENT_ID
and GOOGLE_SHEETS_CLIENT_SECRET). The refresh token is saved locally and
used by 'autobudget analytics --sheets'.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			sheetsCfg := config.SheetsConfig()
			if sheetsCfg.Method() == sheets.AuthServiceAccount {
				fmt.Fprintln(out, cli.FormatInfo("A service account is configured; no browser authorization is needed."))
				return nil
			}

			tokenFile := config.SheetsTokenFile()
			if _, err := auth.Login(cmd.Context(), sheetsCfg.AuthConfig(tokenFile, port), browserOpener(out)); err != nil {
				return fmt.Errorf("failed to authorize Google Sheets: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess("Google Sheets authorized"))
			fmt.Fprintf(out, "  Token saved to %s\n", tokenFile)
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Local port for the OAuth callback")

	return cmd
}

// browserOpener prints the authorization URL and tries to open it.
func browserOpener(w io.Writer) auth.URLOpener {
	return func(url string) error {
		fmt.Fprintln(w, cli.FormatInfo("Opening your browser to sign in. If it does not open, visit:"))
		fmt.Fprintln(w, "  "+url)
		if err := auth.OpenBrowser(url); err != nil {
			fmt.Fprintln(w, cli.FormatWarning("Could not open a browser: "+err.Error()))
		}
		return nil
	}
}
