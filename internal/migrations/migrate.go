package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	pg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const versionTable = "schema_migrations_migrate"

// RunMigrations brings the archive schema up to the newest migration in dir
// (default "migrations"). An archive created before versioning was tracked
// is stamped with the newest version instead of being migrated again.
func RunMigrations(databaseURL, dir string) error {
	if databaseURL == "" {
		return errors.New("migrations: no database URL")
	}
	if dir == "" {
		dir = "migrations"
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("migrations: open archive: %w", err)
	}
	defer db.Close()

	driver, err := pg.WithInstance(db, &pg.Config{MigrationsTable: versionTable})
	if err != nil {
		return fmt.Errorf("migrations: postgres driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrations: load %s: %w", dir, err)
	}

	if err := stampUntracked(db, m, dir); err != nil {
		return err
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		log.Printf("[MIGRATE] archive schema already current")
	case err != nil:
		return fmt.Errorf("migrations: apply %s: %w", dir, err)
	default:
		log.Printf("[MIGRATE] archive schema upgraded from %s", dir)
	}
	return nil
}

// stampUntracked marks a pre-existing archive as being at the newest version.
func stampUntracked(db *sql.DB, m *migrate.Migrate, dir string) error {
	untracked, err := untrackedArchive(db)
	if err != nil || !untracked {
		return err
	}
	version, err := latestVersion(dir)
	if err != nil {
		return err
	}
	if version == 0 {
		return nil
	}

	log.Printf("[MIGRATE] match_results exists without version history; stamping v%d", version)
	if err := m.Force(int(version)); err != nil {
		return fmt.Errorf("migrations: stamp v%d: %w", version, err)
	}
	return nil
}

// untrackedArchive reports whether match_results exists while the version
// table does not.
func untrackedArchive(db *sql.DB) (bool, error) {
	var results, versions bool
	err := db.QueryRow(`SELECT
		EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'match_results'),
		EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, versionTable).
		Scan(&results, &versions)
	if err != nil {
		return false, fmt.Errorf("migrations: inspect archive: %w", err)
	}
	return results && !versions, nil
}

// latestVersion walks the migration files in dir and returns the highest
// version, or 0 when there are none.
func latestVersion(dir string) (uint, error) {
	src, err := source.Open("file://" + dir)
	if err != nil {
		return 0, fmt.Errorf("migrations: read %s: %w", dir, err)
	}
	defer src.Close()

	version, err := src.First()
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("migrations: read %s: %w", dir, err)
	}
	for {
		next, err := src.Next(version)
		if errors.Is(err, os.ErrNotExist) {
			return version, nil
		}
		if err != nil {
			return 0, fmt.Errorf("migrations: read %s: %w", dir, err)
		}
		version = next
	}
}
