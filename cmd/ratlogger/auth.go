package main

import (
	"fmt"
	"ratlogger/internal/ports"

	"github.com/spf13/cobra"
)

func (c *cli) loginCommand() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.app.session.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s, %d points)\n", user.Username, user.Rank, user.Points)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func (c *cli) registerCommand() *cobra.Command {
	var req ports.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.session.Register(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Registration successful. You can now log in.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "Account name")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Account password")
	cmd.Flags().StringVar(&req.PasswordConfirm, "confirm", "", "Repeat the password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("confirm")

	return cmd
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func (c *cli) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.app.session.Restore(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case !sess.Authenticated():
				return errNotLoggedIn
			case sess.User == nil:
				fmt.Fprintln(out, "Logged in; profile unavailable while the backend is unreachable.")
			default:
				u := sess.User
				fmt.Fprintf(out, "%s\trank %s\t%d points\t%d reports\n", u.Username, u.Rank, u.Points, u.ReportsCount)
			}
			return nil
		},
	}
}

// requireSession restores the stored session and fails when there is none.
func (c *cli) requireSession(cmd *cobra.Command) error {
	sess, err := c.app.session.Restore(cmd.Context())
	if err != nil {
		return err
	}
	if !sess.Authenticated() {
		return errNotLoggedIn
	}
	return nil
}

