package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// MigrationsTable records applied schema versions.
const MigrationsTable = "schema_migrations"

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrations returns the embedded goose migrations for SQLite.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewMigrationProvider returns a goose provider bound to db and the embedded
// migrations.
func NewMigrationProvider(db *sql.DB) (*goose.Provider, error) {
	versions, err := database.NewStore(database.DialectSQLite3, MigrationsTable)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration store: %w", err)
	}
	return goose.NewProvider("", db, Migrations(), goose.WithStore(versions))
}
