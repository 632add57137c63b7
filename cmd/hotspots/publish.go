package main

import (
	"fmt"
	"os"

	kafkaadapter "github.com/couchcryptid/hazard-hotspot-service/internal/adapter/kafka"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish <file>",
	Short: "Publish a report batch to the source topic",
	Long:  "publish reads a batch JSON file and writes each report, with its place inlined, to KAFKA_SOURCE_TOPIC.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open batch: %w", err)
		}
		defer f.Close()

		batch, err := readBatch(f)
		if err != nil {
			return err
		}
		reports := batch.Flatten()

		producer := kafkaadapter.NewReportProducer(cfg, logger)
		defer producer.Close()

		var progress func(int)
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar := progressbar.NewOptions(len(reports),
				progressbar.OptionSetDescription("Publishing to "+cfg.KafkaSourceTopic),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			defer bar.Finish()
			progress = func(n int) { _ = bar.Add(n) }
		}

		return producer.Publish(cmd.Context(), reports, progress)
	},
}
