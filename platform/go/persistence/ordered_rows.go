package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// orderedTables are the owner-scoped tables that carry an order_index column.
var orderedTables = map[string]struct{}{
	"form_fields":   {},
	"gallery_items": {},
	"reviews":       {},
}

// updateOrderIndex issues a plain single-row UPDATE. It never inserts.
func updateOrderIndex(ctx context.Context, pool *pgxpool.Pool, table string, profileID, id uuid.UUID, orderIndex int) error {
	if _, ok := orderedTables[table]; !ok {
		return fmt.Errorf("table %q is not ordered", table)
	}

	tag, err := pool.Exec(ctx, fmt.Sprintf(`
        UPDATE %s SET order_index = $1 WHERE id = $2 AND profile_id = $3
    `, pgx.Identifier{table}.Sanitize()), orderIndex, id, profileID)
	if err != nil {
		return fmt.Errorf("update %s order: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteScoped(ctx context.Context, pool *pgxpool.Pool, table string, profileID, id uuid.UUID) error {
	if _, ok := orderedTables[table]; !ok {
		return fmt.Errorf("table %q is not ordered", table)
	}

	tag, err := pool.Exec(ctx, fmt.Sprintf(`
        DELETE FROM %s WHERE id = $1 AND profile_id = $2
    `, pgx.Identifier{table}.Sanitize()), id, profileID)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
