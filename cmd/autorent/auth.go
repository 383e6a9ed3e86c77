package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autorent/autorent-platform/pkg/auth"
)

func newAuthCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Register, sign in and manage the session",
	}
	cmd.AddCommand(
		newRegisterCmd(e),
		newLoginCmd(e),
		newLogoutCmd(e),
		newResetCmd(e),
		newWhoamiCmd(e),
	)
	return cmd
}

func (e *env) writeUser(prefix string, u *auth.User) error {
	if e.jsonOutput() {
		return writeJSON(e.out, u)
	}
	name := u.DisplayName
	if name == "" {
		name = u.Email
	}
	_, err := fmt.Fprintf(e.out, "%s %s <%s>\n", prefix, name, u.Email)
	return err
}

func newRegisterCmd(e *env) *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.App(cmd.Context())
			if err != nil {
				return err
			}
			user, err := app.Session.Register(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			return e.writeUser("Welcome,", user)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", fmt.Sprintf("Password, at least %d characters", auth.MinPasswordLength))
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	return cmd
}

func newLoginCmd(e *env) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.App(cmd.Context())
			if err != nil {
				return err
			}
			user, err := app.Session.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return e.writeUser("Signed in as", user)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(e.out, "Signed out")
			return err
		},
	}
}

func newResetCmd(e *env) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Send a password reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.Session.ResetPassword(cmd.Context(), email); err != nil {
				return err
			}
			_, err = fmt.Fprintf(e.out, "Password reset email sent to %s\n", email)
			return err
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	return cmd
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.App(cmd.Context())
			if err != nil {
				return err
			}
			user, err := requireUser(cmd.Context(), app.Session, "see your account")
			if err != nil {
				return err
			}
			return e.writeUser("Signed in as", user)
		},
	}
}
