package cli

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	server     string
	app        *App
}

// NewRootCmd creates the root command for the authctl CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "authctl",
		Short:        "authctl - command-line client for authkeeper",
		Long:         `authctl registers accounts and manages a login session against an authkeeper server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			opts.app = app
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if opts.app == nil {
				return nil
			}
			return opts.app.Close()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path")
	cmd.PersistentFlags().StringVarP(&opts.server, "server", "a", "", "server base URL (overrides config)")

	cmd.AddCommand(newRegisterCmd(opts))
	cmd.AddCommand(newLoginCmd(opts))
	cmd.AddCommand(newMeCmd(opts))
	cmd.AddCommand(newUserCmd(opts))
	cmd.AddCommand(newRefreshCmd(opts))
	cmd.AddCommand(newLogoutCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))

	return cmd
}
