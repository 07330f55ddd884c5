package main

import (
	"fmt"
	"proyecto_reservas/internal/entities"
	"proyecto_reservas/internal/repository"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAdminsCmd(envFiles *[]string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admins",
		Short: "Manage admin API users stored in Postgres",
	}
	cmd.AddCommand(newAdminsAddCmd(envFiles), newAdminsListCmd(envFiles))
	return cmd
}

func newAdminsAddCmd(envFiles *[]string) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "add <username> [password]",
		Short: "Create or update an admin user; the password is read from stdin when omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *envFiles)
			if err != nil {
				return err
			}
			defer a.close()
			if a.pg == nil {
				return errNoDatabase
			}

			hash, err := hashFromArgsOrStdin(cmd, args[1:])
			if err != nil {
				return err
			}
			repo := repository.NewAdminUserRepository(a.pg.Pool)
			if err := repo.Save(cmd.Context(), entities.AdminUser{Username: args[0], PasswordHash: hash, Role: role}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "admin", "role claim put in issued tokens")
	return cmd
}

func newAdminsListCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored admin users",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *envFiles)
			if err != nil {
				return err
			}
			defer a.close()
			if a.pg == nil {
				return errNoDatabase
			}

			users, err := repository.NewAdminUserRepository(a.pg.Pool).List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tROLE")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\n", u.Username, u.Role)
			}
			return w.Flush()
		},
	}
}
