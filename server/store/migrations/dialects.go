package migrations

import (
	"fmt"

	"github.com/devboard/devboard/server/store"
)

// DialectTemplate fills in the column types that differ between the supported databases.
type DialectTemplate struct {
	Binary    string
	Timestamp string
}

func NewPostgresDialectTemplate() *DialectTemplate {
	return &DialectTemplate{
		Binary:    "BYTEA",
		Timestamp: "timestamp with time zone",
	}
}

func NewSqliteDialectTemplate() *DialectTemplate {
	return &DialectTemplate{
		Binary:    "BLOB",
		Timestamp: "timestamp",
	}
}

func GetDialectForDriver(driver store.DBDriver) (*DialectTemplate, error) {
	switch driver {
	case store.Sqlite:
		return NewSqliteDialectTemplate(), nil
	case store.Postgres:
		return NewPostgresDialectTemplate(), nil
	}
	return nil, fmt.Errorf("error unsupported database driver: %s", driver)
}
