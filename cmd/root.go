package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prospectml/leadscout/internal/config"
)

var cfg *config.Config

var (
	cfgPath   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "leadscout",
	Short: "Tiered lead discovery pipeline",
	Long:  "Discovers B2B sales leads through tiered web searches, qualifies them with a reasoning model, enriches the survivors with liveness and scoring signals, and ranks the result. Runs as an HTTP service or as one-shot commands.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		if logFormat != "" {
			c.Log.Format = logFormat
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "config file (default: optional config.yaml in the working directory)")
	pf.StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "override log format (json, console)")
}
