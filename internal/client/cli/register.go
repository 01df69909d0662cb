package cli

import (
	"bufio"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/client/models"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
	"github.com/spf13/cobra"
)

type registerConfig struct {
	username    string
	email       string
	dateOfBirth string
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	cfg := &registerConfig{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Long:  `Create a new account. Missing fields are prompted for; the password is always read without echo.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRegister(cmd, opts.app, cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&cfg.email, "email", "e", "", "email address")
	cmd.Flags().StringVar(&cfg.dateOfBirth, "dob", "", "date of birth (YYYY-MM-DD)")

	return cmd
}

func runRegister(cmd *cobra.Command, app *App, cfg *registerConfig) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	var err error
	if cfg.username == "" {
		if cfg.username, err = GetSimpleText(reader, "Enter username", out); err != nil {
			return err
		}
	}
	if cfg.email == "" {
		if cfg.email, err = GetSimpleText(reader, "Enter email", out); err != nil {
			return err
		}
	}
	if cfg.dateOfBirth == "" {
		if cfg.dateOfBirth, err = GetSimpleText(reader, "Enter date of birth (YYYY-MM-DD)", out); err != nil {
			return err
		}
	}

	var dob *timex.Date
	if cfg.dateOfBirth != "" {
		d, err := timex.ParseDate(cfg.dateOfBirth)
		if err != nil {
			return fmt.Errorf("date of birth: %w", err)
		}
		dob = &d
	}

	password, err := GetNewPassword(out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := app.auth.Register(cmd.Context(), models.Registration{
		Username:    cfg.username,
		Email:       cfg.email,
		Password:    string(password),
		DateOfBirth: dob,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Registered %s, you can log in now\n", user.Username)
	return nil
}
