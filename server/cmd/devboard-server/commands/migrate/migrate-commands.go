package migrate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/server/app"
	"github.com/devboard/devboard/server/cmd/devboard-server/cli"
	"github.com/devboard/devboard/server/cmd/devboard-server/commands"
	"github.com/devboard/devboard/server/store"
	"github.com/devboard/devboard/server/store/migrations"
)

func init() {
	migrateRootCmd.PersistentFlags().BoolVarP(
		&migrateCmdConfig.skipConfirmation,
		"skip-confirmation",
		"",
		false,
		"Skip interactive confirmation and automatically answer Yes to confirmation questions")

	commands.RootCmd.AddCommand(migrateRootCmd)
	migrateRootCmd.AddCommand(migrateUpCmd)
	migrateRootCmd.AddCommand(migrateDownCmd)
	migrateRootCmd.AddCommand(migrateGotoCmd)
	migrateRootCmd.AddCommand(migrateForceCmd)
	migrateRootCmd.AddCommand(migrateVersionCmd)
}

var migrateCmdConfig = struct {
	driver           store.DBDriver
	connectionString store.DatabaseConnectionString
	skipConfirmation bool
	migrationRunner  *migrations.CredentialSchemaMigrator
}{}

var migrateRootCmd = &cobra.Command{
	Use:   "migrate up|down|goto|force|version [version-number]",
	Short: "Migrates the credential database up to the latest version, down to empty, or to a specific version number",
	Long: `Migrates the credential database named by --database_driver and --database_connection_string.
Only needed when --credential_store=database; serve migrates the database up on start.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		settings, err := app.NewViper(cmd.Flags(), commands.Global.ConfigFilePath)
		if err != nil {
			return err
		}
		migrateCmdConfig.driver = store.DBDriver(settings.GetString("database_driver"))
		migrateCmdConfig.connectionString = store.DatabaseConnectionString(settings.GetString("database_connection_string"))
		if migrateCmdConfig.driver == store.Sqlite {
			err = store.SQLiteConnectionInit(migrateCmdConfig.connectionString.String())
			if err != nil {
				return err
			}
		}

		// migration runner needs a log factory; use a very plain log format
		logRegistry, err := logger.NewLogRegistry(logger.LogLevelConfig(settings.GetString("log_levels")))
		if err != nil {
			return err
		}
		logFactory := logger.MakeLogrusLogFactoryStdErrPlain(logRegistry)
		migrateCmdConfig.migrationRunner = migrations.NewServerMigrateRunner(logFactory)
		return nil
	},
}

var migrateUpCmd = &cobra.Command{
	Use:           "up",
	Short:         "Migrates the database up to the latest version",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := migrateCmdConfig.migrationRunner.Up(context.Background(), migrateCmdConfig.driver, migrateCmdConfig.connectionString)
		if err != nil {
			return fmt.Errorf("error running 'up' migration: %w", err)
		}
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:           "down",
	Short:         "Migrates the database down to being empty",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmed := cli.AskForConfirmation("Running a Down migration will remove ALL stored tokens and rejections. Are you sure?", migrateCmdConfig.skipConfirmation)
		if !confirmed {
			cli.Stdout.Printf("Down migration cancelled.")
			return nil
		}
		err := migrateCmdConfig.migrationRunner.Down(context.Background(), migrateCmdConfig.driver, migrateCmdConfig.connectionString)
		if err != nil {
			return fmt.Errorf("error running 'down' migration: %w", err)
		}
		return nil
	},
}

var migrateGotoCmd = &cobra.Command{
	Use:           "goto V",
	Short:         "Migrates the database up or down as required to be at specific version V",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := parseVersion(args[0])
		if err != nil {
			return err
		}
		confirmed := cli.AskForConfirmation("Running a Goto migration will sometimes REMOVE data from this database. Are you sure?", migrateCmdConfig.skipConfirmation)
		if !confirmed {
			cli.Stdout.Printf("Goto migration cancelled.")
			return nil
		}
		err = migrateCmdConfig.migrationRunner.Goto(context.Background(), migrateCmdConfig.driver, migrateCmdConfig.connectionString, version)
		if err != nil {
			return fmt.Errorf("error running 'goto' migration: %w", err)
		}
		return nil
	},
}

var migrateForceCmd = &cobra.Command{
	Use:           "force V",
	Short:         "Marks the database as being clean and in version V, but don't run migrations",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := parseVersion(args[0])
		if err != nil {
			return err
		}
		confirmed := cli.AskForConfirmation("Running a Force migration should only be performed after the database has been manually checked and fixed. Are you sure?", migrateCmdConfig.skipConfirmation)
		if !confirmed {
			cli.Stdout.Printf("Force migration cancelled.")
			return nil
		}
		err = migrateCmdConfig.migrationRunner.Force(context.Background(), migrateCmdConfig.driver, migrateCmdConfig.connectionString, version)
		if err != nil {
			return fmt.Errorf("error running 'force' operation: %w", err)
		}
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:           "version",
	Short:         "Prints the schema version the database is at and the latest available version",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := migrateCmdConfig.migrationRunner
		version, dirty, err := runner.Version(context.Background(), migrateCmdConfig.driver, migrateCmdConfig.connectionString)
		if err != nil {
			return fmt.Errorf("error reading schema version: %w", err)
		}
		cli.Stdout.Printf("Current version: %d (latest %d)", version, runner.Latest())
		if dirty {
			cli.Stdout.Printf("The last migration failed part way through; fix the database then run 'migrate force %d'", version)
		}
		return nil
	},
}

func parseVersion(s string) (uint, error) {
	version, err := strconv.Atoi(s)
	if err != nil || version <= 0 {
		return 0, fmt.Errorf("error: version must be a valid number")
	}
	return uint(version), nil
}
