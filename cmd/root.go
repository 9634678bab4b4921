package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/placepulse/fencewatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "fencewatch",
	Short: "Geofence visit monitor",
	Long:  "Polls a location source, detects entry/exit across circular geofences, tracks rolling visit-duration averages and schedules halfway-through-visit alerts.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
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
