package store_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/server/store"
	"github.com/devboard/devboard/server/store/migrations"
)

const (
	testDBDriverEnvVar         = "DEVBOARD_TEST_DB_DRIVER"
	testConnectionStringEnvVar = "DEVBOARD_TEST_CONNECTION_STRING"
)

// Connect opens a migrated test database. SQLite in dir is used unless
// DEVBOARD_TEST_DB_DRIVER and DEVBOARD_TEST_CONNECTION_STRING select another database.
func Connect(dir string, logFactory logger.LogFactory) (*store.DB, func(), error) {
	driver := store.Sqlite
	connectionString := store.DatabaseConnectionString("file:" + filepath.Join(dir, "test.db") + "?_foreign_keys=1")
	if val, ok := os.LookupEnv(testDBDriverEnvVar); ok {
		driver = store.DBDriver(val)
		conn, ok := os.LookupEnv(testConnectionStringEnvVar)
		if !ok || conn == "" {
			return nil, nil, fmt.Errorf("error %s must be set alongside %s", testConnectionStringEnvVar, testDBDriverEnvVar)
		}
		connectionString = store.DatabaseConnectionString(conn)
	}
	db, cleanup, err := store.NewDatabase(context.Background(), store.DatabaseConfig{
		ConnectionString:   connectionString,
		Driver:             driver,
		MaxIdleConnections: store.DefaultDatabaseMaxIdleConnections,
		MaxOpenConnections: store.DefaultDatabaseMaxOpenConnections,
	}, migrations.NewServerMigrateRunner(logFactory))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating database: %w", err)
	}
	return db, cleanup, nil
}
