package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"dialysisfind/dedup"
	"dialysisfind/scrape"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxParallelStates = 4

var (
	dedupeIn        string
	dedupeOut       string
	dedupeThreshold float64
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Merge duplicate facility records in every <state>.json file",
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold := dedupeThreshold
		if !cmd.Flags().Changed("threshold") {
			threshold = cfg.Dedup.ThresholdKm
		}
		summaries, err := runDedupe(cmd.Context(), dedupeIn, dedupeOut, threshold, logger)
		if err != nil {
			return err
		}
		for _, s := range summaries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records -> %d centers\n", s.File, s.Records, s.Centers)
		}
		return nil
	},
}

func init() {
	dedupeCmd.Flags().StringVar(&dedupeIn, "in", "data/scraped", "Directory of scraped <state>.json files")
	dedupeCmd.Flags().StringVar(&dedupeOut, "out", "data/merged", "Directory for merged output")
	dedupeCmd.Flags().Float64Var(&dedupeThreshold, "threshold", dedup.DefaultThresholdKm, "Merge distance in km")
}

type dedupeSummary struct {
	File    string
	Records int
	Centers int
}

// runDedupe processes each state file on its own goroutine. Files are
// independent, so the merge result does not depend on scheduling.
func runDedupe(ctx context.Context, inDir, outDir string, thresholdKm float64, logger *zap.Logger) ([]dedupeSummary, error) {
	files, err := scrape.StateFiles(inDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no *.json files in %s", inDir)
	}

	summaries := make([]dedupeSummary, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelStates)

	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, err := scrape.ReadFacilities(file, logger)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			centers := dedup.Deduplicate(records, thresholdKm)

			out := filepath.Join(outDir, filepath.Base(file))
			if err := scrape.WriteCenters(out, centers); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			logger.Info("Deduplicated state file",
				zap.String("file", filepath.Base(file)),
				zap.Int("records", len(records)),
				zap.Int("centers", len(centers)))
			summaries[i] = dedupeSummary{File: filepath.Base(file), Records: len(records), Centers: len(centers)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].File < summaries[j].File })
	return summaries, nil
}
