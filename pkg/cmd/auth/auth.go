package auth

import (
	"errors"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/admin-dashboard/internal/state"
	"github.com/Sternrassler/admin-dashboard/internal/tui"
	"github.com/Sternrassler/admin-dashboard/pkg/cmd/cmdutil"
	"github.com/Sternrassler/admin-dashboard/pkg/session"
)

// runAuth lets tests replace the interactive form.
var runAuth = tui.RunAuth

func NewCmdAuth(p *state.Provider) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"a"},
		Short:   "Manage the admin session",
	}

	cmd.AddCommand(
		NewCmdLogin(p),
		NewCmdRegister(p),
		NewCmdLogout(p),
		NewCmdWhoami(p),
	)
	return cmd
}

func NewCmdLogin(p *state.Provider) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:     "login",
		Aliases: []string{"l"},
		Short:   "Log in with email and password",
		Long: heredoc.Doc(`
			Log in to the admin API. Without flags an interactive form is shown.
			The access token is stored in token_file and reused by later commands.
		`),
		Example: heredoc.Doc(`
			$ dashboard auth login
			$ dashboard auth login --email ada@example.com --password secret
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive := email == "" || password == ""
			s, err := p.Get(state.Options{LogToFile: interactive})
			if err != nil {
				return err
			}

			if admin, err := s.RequireLogin(cmd.Context()); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Already logged in as %s. Run 'dashboard auth logout' to switch accounts.\n", admin.Email)
				return nil
			}

			if interactive {
				return interactiveAuth(cmd, s, tui.ModeLogin)
			}

			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()
			if err := s.Session.Login(ctx, email, password); err != nil {
				return authError(err)
			}
			return printWelcome(cmd, s)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	return cmd
}

func NewCmdRegister(p *state.Provider) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an admin account",
		Long: heredoc.Doc(`
			Register a new admin account and log in with it. Without flags an
			interactive form is shown.
		`),
		Example: heredoc.Doc(`
			$ dashboard auth register --username ada --email ada@example.com --password secret
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive := username == "" || email == "" || password == ""
			s, err := p.Get(state.Options{LogToFile: interactive})
			if err != nil {
				return err
			}

			if interactive {
				return interactiveAuth(cmd, s, tui.ModeRegister)
			}

			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()
			if err := s.Session.Register(ctx, username, email, password); err != nil {
				return authError(err)
			}
			return printWelcome(cmd, s)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	return cmd
}

func NewCmdLogout(p *state.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := p.Get(state.Options{})
			if err != nil {
				return err
			}
			s.Session.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Successfully logged out.")
			return nil
		},
	}
}

func NewCmdWhoami(p *state.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, admin, err := cmdutil.LoggedIn(cmd, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (id %s)\n", admin.Username, admin.Email, admin.ID)
			return nil
		},
	}
}

func interactiveAuth(cmd *cobra.Command, s *state.State, mode tui.AuthMode) error {
	ok, err := runAuth(s.Session, mode)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("authentication cancelled")
	}
	return printWelcome(cmd, s)
}

func printWelcome(cmd *cobra.Command, s *state.State) error {
	admin, ok := s.Session.CurrentUser()
	if !ok {
		return errors.New("login succeeded but no profile was returned")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>.\n", admin.Username, admin.Email)
	return nil
}

func authError(err error) error {
	switch session.Kind(err) {
	case session.KindValidation, session.KindOther:
		return err
	}
	return fmt.Errorf("%s: %w", session.Message(err), err)
}
