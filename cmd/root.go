// Package cmd provides the entrypoint for the gh-webhook-stub cli.
package cmd

import (
	"cmp"
	"errors"
	"log/slog"
	"os"

	"github.com/isometry/gh-webhook-stub/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvConfigFile names the configuration file. Flags and environment variables take precedence over it.
const EnvConfigFile = "WEBHOOK_STUB_CONFIG"

var (
	configFilePath string
	logger         *slog.Logger
)

type boundEnvVar[T argType] struct {
	Name, Description string
	Env, Short        *string
	Hidden            bool
}

// New returns the root command for the gh-webhook-stub.
// Every call starts from a fresh configuration.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gh-webhook-stub",
		Short:         "Feed GitHub webhook event stubs to a local action or App handler",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				AddSource: config.Global.Logging.CallerTrace,
				Level:     slog.LevelWarn - slog.Level(config.Global.Logging.Verbosity*4),
			})).With("command", cmd.Name())
		},
	}

	// Configuration loading & defaults
	config.Reset()
	configFilePath = cmp.Or(os.Getenv(EnvConfigFile), "webhook-stub.yaml")
	if err := errors.Join(
		config.LoadFromFile(configFilePath),
		config.SetDefaults(),
	); err != nil {
		panic(err)
	}
	if err := config.LoadDotEnv(config.Global.DotEnv); err != nil {
		panic(err)
	}

	// Dynamic flags
	setupDynamicFlags(cmd)

	// Subcommands
	cmd.AddCommand(
		cmdReceive(),
		cmdRender(),
		cmdConfig(),
	)

	return cmd
}

func setupDynamicFlags(cmd *cobra.Command) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(replacer)

	bindEnvMap(cmd, envMapString)
	bindEnvMap(cmd, envMapBool)
	bindEnvMap(cmd, envMapCount)
	bindEnvMap(cmd, envMapInt64)
}
