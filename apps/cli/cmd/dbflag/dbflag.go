// Package dbflag shares the --database-url flag and pool setup between commands.
package dbflag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/zenGate-Global/booking-funnel/platform/go/persistence"
)

// Register adds --database-url to cmd, defaulting to $DATABASE_URL.
func Register(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string (defaults to $DATABASE_URL)")
}

// Open connects to the database named by url.
func Open(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("--database-url or DATABASE_URL is required")
	}
	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: url})
	if err != nil {
		return nil, fmt.Errorf("init pool: %w", err)
	}
	return pool, nil
}
