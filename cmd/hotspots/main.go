// Command hotspots detects geographic hazard hotspots from crowd-sourced
// reports. It serves the hotspot API and Kafka pipeline, runs one-off
// detections over report files, and publishes fixtures to the source topic.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/hazard-hotspot-service/internal/config"
	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "hotspots",
	Short:        "Hazard hotspot detection",
	Long:         "hotspots filters crowd-sourced reports for natural hazards, scores their severity, and clusters them into geographic hotspots.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cmd.Name() == "detect" {
			// stdout carries the hotspot JSON.
			logger = observability.NewStderrLogger(cfg)
		} else {
			logger = sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println("hotspots", version)
	},
}
