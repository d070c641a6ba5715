// Package profiles exposes the platform-admin approval queue on the command line.
package profiles

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zenGate-Global/booking-funnel/apps/cli/cmd/dbflag"
	profilesrepo "github.com/zenGate-Global/booking-funnel/domains/profiles/be/repo"
	profilesservice "github.com/zenGate-Global/booking-funnel/domains/profiles/be/service"
	"github.com/zenGate-Global/booking-funnel/platform/go/cache"
	"github.com/zenGate-Global/booking-funnel/platform/go/persistence"
	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
)

const cliRequestID = "cli"

// Command groups profile moderation helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List, approve and reject profiles",
	}

	cmd.AddCommand(listCommand())
	cmd.AddCommand(approveCommand())
	cmd.AddCommand(rejectCommand())
	return cmd
}

func listCommand() *cobra.Command {
	var (
		databaseURL string
		status      string
	)

	c := &cobra.Command{
		Use:   "list",
		Short: "List profiles, optionally filtered by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(databaseURL, func(ctx context.Context, svc profilesservice.Service) error {
				var filter *string
				if status != "" {
					filter = &status
				}
				items, err := svc.AdminList(ctx, requesttrace.System(cliRequestID), filter)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSLUG\tNAME\tSTATUS")
				for _, p := range items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Slug, p.DisplayName, p.Status)
				}
				return w.Flush()
			})
		},
	}

	dbflag.Register(c, &databaseURL)
	c.Flags().StringVar(&status, "status", "", "pending | active | rejected")
	return c
}

func approveCommand() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "approve <profile-id>",
		Short: "Activate a pending profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid profile id: %w", err)
			}
			return withService(databaseURL, func(ctx context.Context, svc profilesservice.Service) error {
				p, err := svc.Approve(ctx, requesttrace.System(cliRequestID), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is %s\n", p.Slug, p.ID, p.Status)
				return nil
			})
		},
	}

	dbflag.Register(c, &databaseURL)
	return c
}

func rejectCommand() *cobra.Command {
	var (
		databaseURL string
		reason      string
	)

	c := &cobra.Command{
		Use:   "reject <profile-id>",
		Short: "Reject a profile with an optional reason",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid profile id: %w", err)
			}
			return withService(databaseURL, func(ctx context.Context, svc profilesservice.Service) error {
				var r *string
				if reason != "" {
					r = &reason
				}
				p, err := svc.Reject(ctx, requesttrace.System(cliRequestID), id, r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is %s\n", p.Slug, p.ID, p.Status)
				return nil
			})
		},
	}

	dbflag.Register(c, &databaseURL)
	c.Flags().StringVar(&reason, "reason", "", "rejection reason shown to the owner")
	return c
}

// withService builds the profiles service. Cached public pages are only
// dropped when REDIS_URL points at the cache the API process shares.
func withService(databaseURL string, fn func(ctx context.Context, svc profilesservice.Service) error) error {
	ctx := context.Background()

	var pages profilesservice.PageInvalidator
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		store, closeCache, err := cache.Open(ctx, redisURL)
		if err != nil {
			return fmt.Errorf("init page cache: %w", err)
		}
		defer func() {
			_ = closeCache()
		}()
		pages = cache.NewPageInvalidator(store, zap.NewNop())
	}

	pool, err := dbflag.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer persistence.ClosePool(pool)

	profileStore, err := persistence.NewProfileStore(ctx, pool)
	if err != nil {
		return fmt.Errorf("init profile store: %w", err)
	}
	settingsStore, err := persistence.NewSettingsStore(ctx, pool)
	if err != nil {
		return fmt.Errorf("init settings store: %w", err)
	}

	return fn(ctx, profilesservice.New(profilesrepo.NewPostgresRepository(profileStore, settingsStore), pages))
}
