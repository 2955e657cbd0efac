package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // register postgres driver
	"github.com/golang-migrate/migrate/v4/source"
)

func newMigrator(src source.Driver, dsn string) (*migrate.Migrate, error) {
	m, err := migrate.NewWithSourceInstance("embedded", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: create migrator: %w", err)
	}
	return m, nil
}

// RunMigrations applies all pending migrations from src. It returns nil when
// the schema is already current.
func RunMigrations(src source.Driver, dsn string) error {
	m, err := newMigrator(src, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres: run migrations up: %w", err)
	}

	return nil
}

// RunMigrationsDown rolls back all migrations from src.
// If there are no migrations to roll back the function returns nil.
func RunMigrationsDown(src source.Driver, dsn string) error {
	m, err := newMigrator(src, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres: run migrations down: %w", err)
	}

	return nil
}

// MigrationVersion reports the applied schema version. ok is false on a
// database that has never been migrated.
func MigrationVersion(src source.Driver, dsn string) (version uint, dirty, ok bool, err error) {
	m, err := newMigrator(src, dsn)
	if err != nil {
		return 0, false, false, err
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("postgres: read migration version: %w", err)
	}
	return version, dirty, true, nil
}
