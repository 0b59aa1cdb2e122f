package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/quill/internal/guard"
	"github.com/me/quill/pkg/model"
)

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage user accounts (admins only)",
	}
	cmd.AddCommand(newAdminUsersCmd(a), newAdminDeleteUserCmd(a), newAdminSetRoleCmd(a))
	return cmd
}

func newAdminUsersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "users",
		Short:       "List all users",
		Args:        cobra.NoArgs,
		Annotations: gatedOn(guard.RouteAdminUsers),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.api.ListUsers(cmd.Context())
			if err != nil {
				return failed("list users", err)
			}
			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users found.")
				return nil
			}
			fmt.Fprintf(out, "%-6s  %-24s  %-32s  %s\n", "ID", "NAME", "EMAIL", "ROLE")
			fmt.Fprintf(out, "%-6s  %-24s  %-32s  %s\n", "--", "----", "-----", "----")
			for _, u := range users {
				fmt.Fprintf(out, "%-6d  %-24s  %-32s  %s\n", u.ID, truncate(u.Name, 24), truncate(u.Email, 32), u.Role)
			}
			return nil
		},
	}
}

func newAdminDeleteUserCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "delete-user <user_id>",
		Short:       "Delete a user account",
		Args:        cobra.ExactArgs(1),
		Annotations: gatedOn(guard.RouteAdminUsers),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			if me, ok := a.session.Current().User(); ok && me.ID == id {
				return fmt.Errorf("refusing to delete your own account (id %d)", id)
			}
			if err := a.api.DeleteUser(cmd.Context(), id); err != nil {
				return failed("delete user", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d.\n", id)
			return nil
		},
	}
}

func newAdminSetRoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "set-role <user_id> <role>",
		Short:       "Change a user's role",
		Args:        cobra.ExactArgs(2),
		Annotations: gatedOn(guard.RouteAdminUsers),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			role, err := model.ParseRole(args[1])
			if err != nil {
				return err
			}
			if err := a.api.UpdateUserRole(cmd.Context(), id, role); err != nil {
				return failed("set role", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %d is now %s.\n", id, role.Label())
			return nil
		},
	}
}
