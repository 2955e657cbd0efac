package postgres

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	pkgpostgres "github.com/nodalpair/nodalpair/pkg/postgres"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrationSource returns the schema migrations compiled into the binary.
func MigrationSource() (source.Driver, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("postgres: open embedded migrations: %w", err)
	}
	return src, nil
}

// Migrate applies all pending schema migrations.
func Migrate(dsn string) error {
	src, err := MigrationSource()
	if err != nil {
		return err
	}
	return pkgpostgres.RunMigrations(src, dsn)
}

// MigrateDown rolls back every schema migration.
func MigrateDown(dsn string) error {
	src, err := MigrationSource()
	if err != nil {
		return err
	}
	return pkgpostgres.RunMigrationsDown(src, dsn)
}

// SchemaVersion reports the applied schema version.
func SchemaVersion(dsn string) (version uint, dirty, ok bool, err error) {
	src, err := MigrationSource()
	if err != nil {
		return 0, false, false, err
	}
	return pkgpostgres.MigrationVersion(src, dsn)
}
