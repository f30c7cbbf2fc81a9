package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/app"
)

var fetchCmdConfig = struct {
	authorization string
}{}

func init() {
	fetchCmd.Flags().StringVar(
		&fetchCmdConfig.authorization,
		"authorization",
		"",
		"An Authorization header value to send to the SCM server, e.g. \"Bearer <token>\"")
	RootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:           "fetch REPOSITORY [FILE]",
	Short:         "Prints a file from a repository, or its configuration file if FILE is omitted",
	Args:          cobra.RangeArgs(1, 2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		config, err := LoadServerConfig(cmd)
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}
		config.LogToStdErr = true

		server, cleanup, err := app.New(ctx, config)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		defer cleanup()

		filePath := ""
		if len(args) == 2 {
			filePath = args[1]
		}
		content, err := server.SCMFileService.ResolveFile(ctx, models.AnonymousIdentity, fetchCmdConfig.authorization, args[0], filePath)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(content.Content)
		return err
	},
}
