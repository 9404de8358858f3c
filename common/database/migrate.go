package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrateResult reports the schema version after a migration run.
type MigrateResult struct {
	Version uint `json:"version" yaml:"version"`
	Dirty   bool `json:"dirty" yaml:"dirty"`
	Changed bool `json:"changed" yaml:"changed"`
}

// Migrate applies every pending up migration from source (a migrate source
// URL such as "file://gateway/migrations") to the database at connString.
func Migrate(source, connString string) (MigrateResult, error) {
	m, err := migrate.New(source, connString)
	if err != nil {
		return MigrateResult{}, fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	changed := true
	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return MigrateResult{}, fmt.Errorf("failed to run migrations: %w", err)
		}
		changed = false
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrateResult{}, fmt.Errorf("failed to read migration version: %w", err)
	}

	return MigrateResult{Version: version, Dirty: dirty, Changed: changed}, nil
}
