package commands

import (
	"fmt"
	"os"

	"github.com/iyhunko/gas-app/internal/config"
	"github.com/iyhunko/gas-app/internal/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gas-app",
	Short: "Marketplace where producers list the gas they sell",
	Long: `gas-app serves the producer and product marketplace over HTML and JSON,
relays domain events to SQS and manages the database schema.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and installs the JSON logger.
func loadConfig() (*config.Config, error) {
	conf, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("error while loading config: %w", err)
	}
	logger.InitJSONLogger(conf.DebugMode)
	return conf, nil
}
