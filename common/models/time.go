package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const timestampStorageFormat = "2006-01-02 15:04:05.999999-07:00"

// Time is a UTC timestamp with microsecond precision, the finest precision Postgres stores.
// It scans from both Postgres timestamps and SQLite strings.
type Time struct {
	time.Time
}

func NewTime(t time.Time) Time {
	return Time{Time: t.UTC().Round(time.Microsecond)}
}

func (s *Time) Scan(src interface{}) error {
	switch t := src.(type) {
	case nil:
		return nil
	case time.Time:
		*s = NewTime(t)
	case string:
		parsed, err := time.Parse(timestampStorageFormat, t)
		if err != nil {
			return errors.Wrap(err, "error parsing time")
		}
		*s = Time{Time: parsed.UTC()}
	default:
		return fmt.Errorf("unsupported type: %[1]T (%[1]v)", src)
	}
	return nil
}

// Value formats the time for use as a query argument.
func (s Time) Value() (driver.Value, error) {
	return s.Format(timestampStorageFormat), nil
}
