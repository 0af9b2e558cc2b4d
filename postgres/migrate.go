package postgres

import (
	"context"
	"embed"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockplus/plankit/pkg/pg"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded schema migrations. The SQL files travel
// inside the binary, so deployments never depend on a migrations directory
// being present on disk.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.MigrateFS(ctx, pool, cfg, log, migrationsFS, "migrations")
}
