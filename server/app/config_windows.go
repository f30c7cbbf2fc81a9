//go:build windows
// +build windows

package app

const (
	defaultSQLiteConnectionString = "file:C:/ProgramData/DevBoard/db/sqlite.db?cache=shared"
	defaultConfigFilePath         = "C:/ProgramData/DevBoard/devboard.yaml"
)
