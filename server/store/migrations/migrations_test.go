package migrations_test

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/server/store"
	"github.com/devboard/devboard/server/store/migrations"
)

func TestServerMigrations(t *testing.T) {
	ctx := context.Background()
	connectionString := store.DatabaseConnectionString("file:" + filepath.Join(t.TempDir(), "migrations.db"))
	runner := migrations.NewServerMigrateRunner(logger.NoOpLogFactory)

	version, dirty, err := runner.Version(ctx, store.Sqlite, connectionString)
	require.NoError(t, err)
	require.Zero(t, version)
	require.False(t, dirty)

	require.NoError(t, runner.Up(ctx, store.Sqlite, connectionString))
	// A second Up is a no-op
	require.NoError(t, runner.Up(ctx, store.Sqlite, connectionString))
	version, _, err = runner.Version(ctx, store.Sqlite, connectionString)
	require.NoError(t, err)
	require.Equal(t, runner.Latest(), version)

	require.NoError(t, runner.Goto(ctx, store.Sqlite, connectionString, 1))
	version, _, err = runner.Version(ctx, store.Sqlite, connectionString)
	require.NoError(t, err)
	require.Equal(t, uint(1), version)

	// Force only rewrites the recorded version
	require.NoError(t, runner.Force(ctx, store.Sqlite, connectionString, 1))
	require.NoError(t, runner.Down(ctx, store.Sqlite, connectionString))
	require.NoError(t, runner.Up(ctx, store.Sqlite, connectionString))

	db, cleanup, err := store.NewDatabase(ctx, store.DatabaseConfig{Driver: store.Sqlite, ConnectionString: connectionString}, nil)
	require.NoError(t, err)
	defer cleanup()
	var count int
	require.NoError(t, db.GetContext(ctx, &count, "SELECT count(*) FROM scm_tokens"))
	require.NoError(t, db.GetContext(ctx, &count, "SELECT count(*) FROM scm_rejections"))
}

func TestMigrationTemplating(t *testing.T) {
	runner := migrations.NewServerMigrateRunner(logger.NoOpLogFactory)
	tests := map[string]struct {
		dialect *migrations.DialectTemplate
		want    string
	}{
		"Sqlite":   {migrations.NewSqliteDialectTemplate(), "BLOB"},
		"Postgres": {migrations.NewPostgresDialectTemplate(), "BYTEA"},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			inMemoryFS, err := runner.ProduceMigrationFiles(test.dialect)
			require.NoError(t, err)

			var names []string
			err = fs.WalkDir(inMemoryFS, "migrations", func(path string, d fs.DirEntry, err error) error {
				if err == nil && !d.IsDir() {
					names = append(names, d.Name())
				}
				return err
			})
			require.NoError(t, err)
			require.Len(t, names, 2*len(migrations.ServerMigrations))
			require.Contains(t, names, "000001_create_scm_tokens.up.sql")

			up, err := fs.ReadFile(inMemoryFS, "migrations/000001_create_scm_tokens.up.sql")
			require.NoError(t, err)
			require.True(t, strings.Contains(string(up), test.want))
			require.NotContains(t, string(up), "{{")
		})
	}
}

func TestLatestMigration(t *testing.T) {
	runner := migrations.NewServerMigrateRunner(logger.NoOpLogFactory)
	require.Equal(t, uint(len(migrations.ServerMigrations)), runner.Latest())

	err := runner.Up(context.Background(), "mysql", "ignored")
	require.Error(t, err)
}

func TestGetDialectForDriver(t *testing.T) {
	_, err := migrations.GetDialectForDriver("mysql")
	require.Error(t, err)
}
