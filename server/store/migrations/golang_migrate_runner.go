package migrations

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migrate_database "github.com/golang-migrate/migrate/v4/database"
	migrate_postgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migrate_sqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	migrate_iofs "github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/psanford/memfs"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/server/store"
)

const migrationsDir = "migrations"

// CredentialSchemaMigrator keeps the scm_tokens and scm_rejections tables of a credential
// database in step with a MigrationSet. Each migration is rendered for the target dialect
// into an in-memory filesystem and applied by golang-migrate.
type CredentialSchemaMigrator struct {
	set MigrationSet
	log logger.Log
}

// NewCredentialSchemaMigrator returns a migrator applying set.
func NewCredentialSchemaMigrator(set MigrationSet, logFactory logger.LogFactory) *CredentialSchemaMigrator {
	return &CredentialSchemaMigrator{
		set: set,
		log: logFactory("CredentialSchemaMigrator"),
	}
}

// NewServerMigrateRunner returns a migrator for ServerMigrations, the schema that
// backs the database credential store.
func NewServerMigrateRunner(logFactory logger.LogFactory) *CredentialSchemaMigrator {
	return NewCredentialSchemaMigrator(ServerMigrations, logFactory)
}

func (m *CredentialSchemaMigrator) Up(ctx context.Context, driver store.DBDriver, connectionString store.DatabaseConnectionString) error {
	return m.apply(ctx, driver, connectionString, "up", func(migrator *migrate.Migrate) error {
		return migrator.Up()
	})
}

func (m *CredentialSchemaMigrator) Down(ctx context.Context, driver store.DBDriver, connectionString store.DatabaseConnectionString) error {
	return m.apply(ctx, driver, connectionString, "down", func(migrator *migrate.Migrate) error {
		return migrator.Down()
	})
}

func (m *CredentialSchemaMigrator) Goto(ctx context.Context, driver store.DBDriver, connectionString store.DatabaseConnectionString, version uint) error {
	return m.apply(ctx, driver, connectionString, fmt.Sprintf("goto %d", version), func(migrator *migrate.Migrate) error {
		return migrator.Migrate(version)
	})
}

// Force records version as applied and clears the dirty flag left by a failed migration.
// No SQL is run.
func (m *CredentialSchemaMigrator) Force(ctx context.Context, driver store.DBDriver, connectionString store.DatabaseConnectionString, version uint) error {
	return m.apply(ctx, driver, connectionString, fmt.Sprintf("force %d", version), func(migrator *migrate.Migrate) error {
		return migrator.Force(int(version))
	})
}

// Version reports the applied schema version. A zero version means no credential tables
// exist yet. dirty is true if the last migration failed part way through.
func (m *CredentialSchemaMigrator) Version(ctx context.Context, driver store.DBDriver, connectionString store.DatabaseConnectionString) (version uint, dirty bool, err error) {
	err = m.withMigrator(driver, connectionString, func(migrator *migrate.Migrate) error {
		v, d, err := migrator.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		version, dirty = v, d
		return err
	})
	return version, dirty, err
}

// Latest returns the sequence number of the newest migration in the set.
func (m *CredentialSchemaMigrator) Latest() uint {
	var latest int64
	for _, migration := range m.set {
		if migration.SequenceNumber > latest {
			latest = migration.SequenceNumber
		}
	}
	return uint(latest)
}

// apply runs step and treats "no change" as success. golang-migrate takes no context
// so ctx is only checked before starting.
func (m *CredentialSchemaMigrator) apply(
	ctx context.Context,
	driver store.DBDriver,
	connectionString store.DatabaseConnectionString,
	name string,
	step func(*migrate.Migrate) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := m.log.WithFields(logger.Fields{"driver": driver, "migration": name})
	log.Infof("Migrating credential schema...")
	err := m.withMigrator(driver, connectionString, step)
	if errors.Is(err, migrate.ErrNoChange) {
		log.Infof("Credential schema is already up to date")
		return nil
	}
	if err != nil {
		return err
	}
	log.Infof("Credential schema migrated")
	return nil
}

func (m *CredentialSchemaMigrator) withMigrator(driver store.DBDriver, connectionString store.DatabaseConnectionString, fn func(*migrate.Migrate) error) error {
	dialect, err := GetDialectForDriver(driver)
	if err != nil {
		return err
	}
	files, err := m.ProduceMigrationFiles(dialect)
	if err != nil {
		return err
	}
	source, err := migrate_iofs.New(files, migrationsDir)
	if err != nil {
		return err
	}

	// golang-migrate closes the database it is handed, so it gets a pool of its own
	db, err := sqlx.Open(driver.String(), connectionString.String())
	if err != nil {
		return fmt.Errorf("error opening %s database for migration: %w", driver, err)
	}
	target, err := migrationTarget(driver, db)
	if err != nil {
		db.Close()
		return err
	}
	migrator, err := migrate.NewWithInstance("iofs", source, driver.String(), target)
	if err != nil {
		db.Close()
		return err
	}
	defer migrator.Close()
	return fn(migrator)
}

// migrationTarget wraps db in the golang-migrate driver for its dialect. Version
// bookkeeping lives in golang-migrate's default schema_migrations table.
func migrationTarget(driver store.DBDriver, db *sqlx.DB) (migrate_database.Driver, error) {
	var (
		target migrate_database.Driver
		err    error
	)
	switch driver {
	case store.Sqlite:
		target, err = migrate_sqlite3.WithInstance(db.DB, &migrate_sqlite3.Config{})
	case store.Postgres:
		target, err = migrate_postgres.WithInstance(db.DB, &migrate_postgres.Config{
			StatementTimeout:      5 * time.Second,
			MultiStatementEnabled: true,
			MultiStatementMaxSize: migrate_postgres.DefaultMultiStatementMaxSize,
		})
	default:
		return nil, fmt.Errorf("error unsupported migration database driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("error preparing %s credential database for migration: %w", driver, err)
	}
	return target, nil
}

// ProduceMigrationFiles renders the set for dialect as {version}_{name}.{up|down}.sql files
// under migrations/, the layout golang-migrate's iofs source reads.
func (m *CredentialSchemaMigrator) ProduceMigrationFiles(dialect *DialectTemplate) (*memfs.FS, error) {
	files := memfs.New()
	if err := files.MkdirAll(migrationsDir, 0777); err != nil {
		return nil, err
	}
	for _, migration := range m.set {
		for direction, sql := range map[string]string{"up": migration.UpSQL, "down": migration.DownSQL} {
			path := fmt.Sprintf("%s/%06d_%s.%s.sql", migrationsDir, migration.SequenceNumber, migration.Name, direction)
			rendered, err := renderMigration(path, sql, dialect)
			if err != nil {
				return nil, err
			}
			m.log.Tracef("Rendered %s", path)
			if err := files.WriteFile(path, rendered, 0644); err != nil {
				return nil, fmt.Errorf("error writing migration %s to in-memory filesystem: %w", path, err)
			}
		}
	}
	return files, nil
}

func renderMigration(path string, sql string, dialect *DialectTemplate) ([]byte, error) {
	tmpl, err := template.New(path).Option("missingkey=error").Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("error parsing migration %s: %w", path, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, dialect); err != nil {
		return nil, fmt.Errorf("error rendering migration %s: %w", path, err)
	}
	return buf.Bytes(), nil
}
