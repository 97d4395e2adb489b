package postgres

import (
	"context"
	"database/sql"
	"embed"

	"github.com/phrazzld/scry-study/internal/platform/migrate"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations is the goose source for the PostgreSQL schema.
var Migrations = migrate.Source{
	Dialect: "postgres",
	FS:      migrationFS,
	Dir:     "migrations",
}

// Migrate runs a goose command (up, down, reset, status, version) against db.
func Migrate(ctx context.Context, db *sql.DB, command string) error {
	return migrate.Run(ctx, db, Migrations, command)
}
