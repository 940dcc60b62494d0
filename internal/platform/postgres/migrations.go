package postgres

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"github.com/pressly/goose/v3/lock"
)

// MigrationsTable records applied schema versions.
const MigrationsTable = "schema_migrations"

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrations returns the embedded goose migrations for PostgreSQL.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		// embed guarantees the directory exists
		panic(err)
	}
	return sub
}

// NewMigrationProvider returns a goose provider bound to db and the embedded
// migrations. An advisory lock serializes concurrent migrators.
func NewMigrationProvider(db *sql.DB) (*goose.Provider, error) {
	versions, err := database.NewStore(database.DialectPostgres, MigrationsTable)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration store: %w", err)
	}
	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return nil, fmt.Errorf("failed to create migration lock: %w", err)
	}
	return goose.NewProvider("", db, Migrations(),
		goose.WithStore(versions),
		goose.WithSessionLocker(locker),
	)
}
