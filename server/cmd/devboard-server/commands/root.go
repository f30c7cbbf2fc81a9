package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/devboard/devboard/common/version"
	"github.com/devboard/devboard/server/app"
	"github.com/devboard/devboard/server/cmd/devboard-server/cli"
)

type GlobalConfig struct {
	ConfigFilePath string
	Settings       *viper.Viper
}

var Global = &GlobalConfig{}

func init() {
	RootCmd.PersistentFlags().StringVarP(
		&Global.ConfigFilePath,
		"config",
		"c",
		"",
		"The YAML config file to read settings from. Settings may also be supplied as DEVBOARD_ environment variables.")
	app.RegisterServerFlags(RootCmd.PersistentFlags())
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cli.Exit(RootCmd.Execute())
}

// LoadServerConfig reads the server configuration from flags, environment and config file.
func LoadServerConfig(cmd *cobra.Command) (*app.ServerConfig, error) {
	settings, err := app.NewViper(cmd.Flags(), Global.ConfigFilePath)
	if err != nil {
		return nil, err
	}
	Global.Settings = settings
	return app.LoadServerConfig(settings)
}

var RootCmd = &cobra.Command{
	Use:     "devboard-server",
	Short:   "DevBoard factory resolution server",
	Long:    `DevBoard turns repository links into workspace factories and serves repository files to the dashboard.`,
	Version: version.VersionToString(),
}
