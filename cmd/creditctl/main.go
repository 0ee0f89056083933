package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/EvanTenenbaum/TERP-sub019/internal/config"
	"github.com/EvanTenenbaum/TERP-sub019/pkg/logger"
)

var (
	cfg        *config.Config
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:          "creditctl",
	Short:        "Client credit capacity and ranking engine",
	Long:         "Evaluates client credit limits and leaderboard standing from ERP history, over HTTP or from the command line.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := os.Setenv(config.FileEnv, configFile); err != nil {
				return fmt.Errorf("set config file: %w", err)
			}
		}
		c, err := config.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			c.Server.LogLevel = logLevel
		}
		cfg = c

		if err := logger.Init(logger.Options{Format: cfg.Server.LogFormat, Output: cmd.ErrOrStderr()}); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		if err := logger.SetLevelString(cfg.Server.LogLevel); err != nil {
			logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
				logger.String("log_level", cfg.Server.LogLevel), logger.Error(err))
			_ = logger.SetLevelString("info")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides "+config.FileEnv+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
