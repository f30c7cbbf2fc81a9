package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/api/rest/documents"
	"github.com/devboard/devboard/server/app"
)

var resolveCmdConfig = struct {
	authorization string
	parameters    map[string]string
}{}

func init() {
	resolveCmd.Flags().StringVar(
		&resolveCmdConfig.authorization,
		"authorization",
		"",
		"An Authorization header value to send to the SCM server, e.g. \"Bearer <token>\"")
	resolveCmd.Flags().StringToStringVar(
		&resolveCmdConfig.parameters,
		"param",
		nil,
		"Extra factory parameters as name=value pairs")
	RootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:           "resolve URL",
	Short:         "Resolves a repository or configuration file URL and prints the factory as JSON",
	Args:          cobra.ExactArgs(1),
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

		params := models.FactoryParameters{}
		for name, value := range resolveCmdConfig.parameters {
			params[name] = value
		}
		params[models.FactoryURLParameter] = args[0]

		factory, err := server.FactoryService.ResolveFactory(ctx, models.AnonymousIdentity, resolveCmdConfig.authorization, params)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(documents.MakeFactoryDocument(factory))
	},
}
