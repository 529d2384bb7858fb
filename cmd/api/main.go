package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/hms-api/internal/config"
	"github.com/jwalitptl/hms-api/pkg/logger"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "hms",
		Short:        "Hospital appointment booking API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yml (default: ./config.yml, ./config/config.yml, /app/config/config.yml)")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newEventsCmd(),
	)
	return root
}

// loadConfig reads configuration and installs the global logger.
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	l := logger.NewLogger(cfg.LoggerConfig())
	l.SetGlobal()
	log.Debug().Str("config", configPath).Msg("Configuration loaded")
	return cfg, l, nil
}
