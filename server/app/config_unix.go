//go:build !windows
// +build !windows

package app

const (
	defaultSQLiteConnectionString = "file:/var/lib/devboard/db/sqlite.db?cache=shared"
	defaultConfigFilePath         = "/etc/devboard/devboard.yaml"
)
