package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/devboard/devboard/common/util"
	"github.com/devboard/devboard/common/version"
	"github.com/devboard/devboard/server/app"
	"github.com/devboard/devboard/server/cmd/devboard-server/cli"
)

func init() {
	RootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:           "serve",
	Short:         "Runs the API server until interrupted",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli.Stdout.Printf("DevBoard Server v%s", version.VersionToString())
		cli.Stdout.Printf("Starting with args: %v", util.FilterOSArgs(os.Args, app.LogSafeFlags))

		config, err := LoadServerConfig(cmd)
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}

		server, cleanup, err := app.New(context.Background(), config)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		defer cleanup()
		server.AppAPIServer.Start()

		// Wait for SIGINT or SIGTERM before shutting down server
		done := make(chan os.Signal, 1)
		signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		<-done

		err = server.AppAPIServer.Stop(context.Background())
		if err != nil {
			return err
		}
		cli.Stdout.Printf("Server shutdown complete")
		return nil
	},
}
