package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"cargodesk/internal/store"
	"cargodesk/pkg/logger"
)

// EnsureSchema creates the document table for every collection if missing.
// Idempotent; called once at startup before the engine is wired.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	for _, name := range store.Names() {
		table := TableName(name)
		ddl := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id         TEXT PRIMARY KEY,
				doc        JSONB NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, table)
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	log.Infow("schema ensured", "collections", len(store.Names()))
	return nil
}
