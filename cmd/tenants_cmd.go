package main

import (
	"errors"
	"fmt"
	"proyecto_reservas/internal/repository"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var errNoDatabase = errors.New("DATABASE_URL is not set")

func newTenantsCmd(envFiles *[]string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "Inspect and persist tenant configuration",
	}
	cmd.AddCommand(
		newTenantsListCmd(envFiles),
		newTenantsSyncCmd(envFiles),
		newTenantsDeactivateCmd(envFiles),
	)
	return cmd
}

func newTenantsListCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tenants resolved from env, TENANTS_FILE and the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *envFiles)
			if err != nil {
				return err
			}
			defer a.close()

			registrar := a.registrar()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTOKEN\tADMIN CHAT\tMENU\tWEBHOOK")
			for _, id := range a.tenants.IDs() {
				t, _ := a.tenants.Resolve(id)
				webhook, err := registrar.WebhookURL(id)
				if err != nil {
					webhook = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, dash(t.DisplayName), yesNo(t.Credential != ""), dash(t.AdminChatID), yesNo(t.MenuDocument != ""), webhook)
			}
			return w.Flush()
		},
	}
}

func newTenantsSyncCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Upsert every resolved tenant into the tenants table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *envFiles)
			if err != nil {
				return err
			}
			defer a.close()
			if a.pg == nil {
				return errNoDatabase
			}

			repo := repository.NewTenantRepository(a.pg.Pool)
			for _, id := range a.tenants.IDs() {
				t, _ := a.tenants.Resolve(id)
				if err := repo.Upsert(cmd.Context(), t); err != nil {
					return fmt.Errorf("upsert %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "synced %s\n", id)
			}
			return nil
		},
	}
}

func newTenantsDeactivateCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <tenant>",
		Short: "Mark a database tenant inactive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *envFiles)
			if err != nil {
				return err
			}
			defer a.close()
			if a.pg == nil {
				return errNoDatabase
			}
			if err := repository.NewTenantRepository(a.pg.Pool).Deactivate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deactivated %s\n", args[0])
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
