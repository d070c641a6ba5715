package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zenGate-Global/booking-funnel/apps/cli/cmd/dbflag"
	platformmiddleware "github.com/zenGate-Global/booking-funnel/platform/go/middleware"
	"github.com/zenGate-Global/booking-funnel/platform/go/persistence"
)

// Command groups database bootstrap and platform-admin helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap the booking database and platform admins",
	}

	cmd.AddCommand(schemaCommand())
	cmd.AddCommand(grantAdminCommand())
	cmd.AddCommand(revokeAdminCommand())
	return cmd
}

func schemaCommand() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "schema",
		Short: "Apply the embedded DDL (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, err := dbflag.Open(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer persistence.ClosePool(pool)

			if err := persistence.ApplySchema(ctx, pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}

	dbflag.Register(c, &databaseURL)
	return c
}

func grantAdminCommand() *cobra.Command {
	var (
		databaseURL string
		userID      string
	)

	c := &cobra.Command{
		Use:   "grant-admin",
		Short: "Grant the platform-admin role to a user id",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRoles(databaseURL, func(ctx context.Context, roles *persistence.RoleStore) error {
				if err := roles.GrantRole(ctx, strings.TrimSpace(userID), platformmiddleware.PlatformAdminRole); err != nil {
					return fmt.Errorf("grant role: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", platformmiddleware.PlatformAdminRole, userID)
				return nil
			})
		},
	}

	dbflag.Register(c, &databaseURL)
	c.Flags().StringVar(&userID, "user-id", "", "auth provider user id")
	_ = c.MarkFlagRequired("user-id")
	return c
}

func revokeAdminCommand() *cobra.Command {
	var (
		databaseURL string
		userID      string
	)

	c := &cobra.Command{
		Use:   "revoke-admin",
		Short: "Revoke the platform-admin role from a user id",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRoles(databaseURL, func(ctx context.Context, roles *persistence.RoleStore) error {
				if err := roles.RevokeRole(ctx, strings.TrimSpace(userID), platformmiddleware.PlatformAdminRole); err != nil {
					return fmt.Errorf("revoke role: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked %s from %s\n", platformmiddleware.PlatformAdminRole, userID)
				return nil
			})
		},
	}

	dbflag.Register(c, &databaseURL)
	c.Flags().StringVar(&userID, "user-id", "", "auth provider user id")
	_ = c.MarkFlagRequired("user-id")
	return c
}

func withRoles(databaseURL string, fn func(ctx context.Context, roles *persistence.RoleStore) error) error {
	ctx := context.Background()

	pool, err := dbflag.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer persistence.ClosePool(pool)

	roles, err := persistence.NewRoleStore(ctx, pool)
	if err != nil {
		return fmt.Errorf("init role store: %w", err)
	}
	return fn(ctx, roles)
}
