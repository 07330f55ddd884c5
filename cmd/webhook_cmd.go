package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newWebhookCmd(envFiles *[]string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage Telegram webhook registration per tenant",
	}
	cmd.AddCommand(newWebhookSetCmd(envFiles), newWebhookInfoCmd(envFiles))
	return cmd
}

func newWebhookSetCmd(envFiles *[]string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "set [tenant...]",
		Short: "Point tenant bots at BASE_URL/telegram/webhook/<tenant>",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *envFiles)
			if err != nil {
				return err
			}
			defer a.close()

			ids := args
			if all {
				ids = a.tenants.IDs()
			}
			if len(ids) == 0 {
				return fmt.Errorf("name at least one tenant or pass --all")
			}

			registrar := a.registrar()
			var failed int
			for _, id := range ids {
				ctx, cancel := commandContext(cmd.Context(), a.cfg.SendTimeout)
				url, err := registrar.Register(ctx, id)
				cancel()
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", id, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", id, url)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d webhook registrations failed", failed, len(ids))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "register every configured tenant")
	return cmd
}

func newWebhookInfoCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "info <tenant>",
		Short: "Show the webhook the platform has on file for a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *envFiles)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := commandContext(cmd.Context(), a.cfg.SendTimeout)
			defer cancel()
			status, err := a.registrar().Status(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		},
	}
}
