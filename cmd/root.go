package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	var envFiles []string

	cmd := &cobra.Command{
		Use:           "reservas",
		Short:         "Multi-tenant Telegram reservation bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env", ".env.local"}, "env files to load when present")

	cmd.AddCommand(
		newServeCmd(&envFiles),
		newWebhookCmd(&envFiles),
		newTenantsCmd(&envFiles),
		newAdminsCmd(&envFiles),
		newHashPasswordCmd(),
	)
	return cmd
}
