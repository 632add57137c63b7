package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/couchcryptid/hazard-hotspot-service/internal/observability"
	"github.com/couchcryptid/hazard-hotspot-service/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	detectEps        float64
	detectMinSamples int
	detectVocabulary string
	detectCellRes    int
)

var detectCmd = &cobra.Command{
	Use:   "detect [file]",
	Short: "Detect hotspots in a report batch (JSON file or stdin)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open batch: %w", err)
			}
			defer f.Close()
			in = f
		}

		batch, err := readBatch(in)
		if err != nil {
			return err
		}

		params := domain.ClusterParams{Eps: cfg.ClusterEps, MinSamples: cfg.ClusterMinSamples}
		if cmd.Flags().Changed("eps") {
			params.Eps = detectEps
		}
		if cmd.Flags().Changed("min-samples") {
			params.MinSamples = detectMinSamples
		}
		clusterer, err := domain.NewClusterer(params)
		if err != nil {
			return err
		}

		vocabPath := cfg.VocabularyFile
		if detectVocabulary != "" {
			vocabPath = detectVocabulary
		}
		vocab, err := loadVocabulary(vocabPath)
		if err != nil {
			return err
		}

		cellRes := cfg.HotspotCellResolution
		if cmd.Flags().Changed("cell-resolution") {
			cellRes = detectCellRes
		}

		detector := pipeline.NewHotspotDetector(vocab, nil, clusterer, cellRes, observability.NewMetrics(), logger)
		det := detector.Detect(cmd.Context(), batch)
		logger.Info("detection complete",
			"received", det.Received,
			"not_hazard", det.NotHazard,
			"unlocated", det.Unlocated,
			"hotspots", len(det.Hotspots),
		)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(det.Hotspots)
	},
}

func init() {
	detectCmd.Flags().Float64Var(&detectEps, "eps", domain.DefaultEps, "neighborhood radius in degrees (overrides CLUSTER_EPS)")
	detectCmd.Flags().IntVar(&detectMinSamples, "min-samples", domain.DefaultMinSamples, "points required to form a cluster (overrides CLUSTER_MIN_SAMPLES)")
	detectCmd.Flags().StringVar(&detectVocabulary, "vocabulary", "", "vocabulary YAML file (overrides VOCABULARY_FILE)")
	detectCmd.Flags().IntVar(&detectCellRes, "cell-resolution", domain.DefaultCellResolution, "H3 resolution for hotspot cells, -1 to disable (overrides HOTSPOT_CELL_RESOLUTION)")
}

// readBatch decodes a batch document. A bare JSON array is accepted as a
// list of reports with no place table.
func readBatch(r io.Reader) (domain.Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("read batch: %w", err)
	}
	var batch domain.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		var reports []domain.RawReport
		if errArr := json.Unmarshal(data, &reports); errArr != nil {
			return domain.Batch{}, fmt.Errorf("decode batch: %w", err)
		}
		return domain.NewBatch(reports), nil
	}
	for id, place := range domain.NewBatch(batch.Reports).Places {
		if _, ok := batch.Places[id]; !ok {
			if batch.Places == nil {
				batch.Places = make(map[string]domain.Place)
			}
			batch.Places[id] = place
		}
	}
	return batch, nil
}
