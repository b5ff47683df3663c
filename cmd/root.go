// Package cmd provides the infralens command line: the serve command running
// the engine behind the HTTP API, a one-shot snapshot dump and helpers.
package cmd

import (
	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/OliveiraNt/infralens/internal/infrastructure/kafka"
	"github.com/OliveiraNt/infralens/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type rootOptions struct {
	configPath string
	logLevel   string
	factory    domain.ClientFactory
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd(kafka.NewFactory()).Execute()
}

// NewRootCmd builds the command tree. Broker clients are created by factory.
func NewRootCmd(factory domain.ClientFactory) *cobra.Command {
	opts := &rootOptions{factory: factory}

	cmd := &cobra.Command{
		Use:           "infralens",
		Short:         "InfraLens observes a Kafka cluster and serves its state over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			utils.InitLogger()
			if opts.logLevel != "" {
				return utils.SetLogLevel(opts.logLevel)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to the configuration file (default: $INFRALENS_CONFIG or the first config.yml found)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSnapshotCmd(opts))
	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func (o *rootOptions) resolveConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return findConfigPath()
}
