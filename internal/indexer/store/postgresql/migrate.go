package postgresql

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const migrationsTable = "indexer_schema_migrations"

var ErrFailedToMigrate = errors.New("failed to migrate database")

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateUp applies all embedded migrations which have not been applied yet.
func (p *PostgreSQL) MigrateUp() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Join(ErrFailedToMigrate, err)
	}

	driver, err := migratepostgres.WithInstance(p.db, &migratepostgres.Config{
		MigrationsTable: migrationsTable,
	})
	if err != nil {
		return errors.Join(ErrFailedToMigrate, fmt.Errorf("failed to create driver: %v", err))
	}

	migrations, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return errors.Join(ErrFailedToMigrate, fmt.Errorf("failed to initialize migrate instance: %v", err))
	}

	err = migrations.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Join(ErrFailedToMigrate, err)
	}

	return nil
}
