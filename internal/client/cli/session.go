package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/models"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/spf13/cobra"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if username == "" {
				var err error
				username, err = GetSimpleText(bufio.NewReader(cmd.InOrStdin()), "Enter username", out)
				if err != nil {
					return err
				}
			}

			password, err := GetPassword(out, "Enter password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			if err := opts.app.auth.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintf(out, "Logged in as %s\n", username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	return cmd
}

func newMeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := opts.app.auth.Me(cmd.Context())
			if err != nil {
				return err
			}
			return printUser(cmd.OutOrStdout(), u)
		},
	}
}

func newUserCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "user <username>",
		Short: "Show an account with its age and adulthood",
		Long:  `Show an account with its age and adulthood. The server only discloses your own account.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := opts.app.auth.User(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printUser(cmd.OutOrStdout(), u)
		},
	}
}

func newRefreshCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rotate the stored token pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.app.auth.Refresh(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Session refreshed")
			return nil
		},
	}
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.app.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Logged out")
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server reachability and the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server := "reachable"
			if err := opts.app.auth.Ping(cmd.Context()); err != nil {
				if !errors.Is(err, client.ErrUnavailable) {
					return err
				}
				server = "unreachable"
			}

			user, err := opts.app.auth.Whoami(cmd.Context())
			if err != nil {
				return err
			}
			if user == "" {
				user = "not logged in"
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "server:\t%s\n", server)
			fmt.Fprintf(w, "user:\t%s\n", user)
			return w.Flush()
		},
	}
}

func printUser(out io.Writer, u *models.User) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "username:\t%s\n", u.Username)
	fmt.Fprintf(w, "email:\t%s\n", u.Email)
	if u.DateOfBirth != nil {
		fmt.Fprintf(w, "date of birth:\t%s\n", u.DateOfBirth)
	}
	if u.Age != nil {
		fmt.Fprintf(w, "age:\t%d\n", *u.Age)
	}
	if u.IsAdult != nil {
		fmt.Fprintf(w, "adult:\t%t\n", *u.IsAdult)
	}
	return w.Flush()
}
