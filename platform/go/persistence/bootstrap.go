package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/zenGate-Global/booking-funnel/database"
)

// ApplySchema applies the embedded booking DDL in a single transaction, in this order:
//  1. profiles.sql (profiles, members, roles, platform settings)
//  2. content.sql (form fields, gallery items, reviews)
//  3. leads.sql
//
// Every statement is idempotent, so the helper is safe to run on each CLI
// bootstrap and at the start of integration tests.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("apply schema: pool is required")
	}

	var statements []string
	statements = append(statements, splitStatements(sqlassets.ProfilesSQL)...)
	statements = append(statements, splitStatements(sqlassets.ContentSQL)...)
	statements = append(statements, splitStatements(sqlassets.LeadsSQL)...)

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// splitStatements breaks a DDL script on semicolons, dropping "--" comment
// lines and blank chunks. The scripts never embed semicolons in literals.
func splitStatements(script string) []string {
	raw := strings.Split(script, ";")
	out := make([]string, 0, len(raw))
	for _, chunk := range raw {
		lines := strings.Split(chunk, "\n")
		kept := lines[:0]
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			kept = append(kept, line)
		}
		if stmt := strings.TrimSpace(strings.Join(kept, "\n")); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
