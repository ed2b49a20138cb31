// -- cmd/process.go --
package cmd

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/scanrelay/api/schemas"
	"github.com/xkilldash9x/scanrelay/internal/observability"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// newProcessCmd creates the `process` command, which runs one or more scan
// event files through the pipeline locally. Useful for replaying archived
// events and for CI smoke checks with --sink dry-run.
func newProcessCmd() *cobra.Command {
	var (
		sinkKind    string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "process <event.json> [event.json...]",
		Short: "Process scan event files through the normalization pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			dispatcher, rctx, err := buildDispatcher(ctx, cfg, sinkKind, logger)
			if err != nil {
				return err
			}

			type outcome struct {
				file  string
				level schemas.VulnerabilityLevel
			}
			results := make([]outcome, len(args))

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(concurrency)
			var mu sync.Mutex

			for i, file := range args {
				i, file := i, file
				g.Go(func() error {
					invocationID := uuid.NewString()
					log := logger.With(
						zap.String("invocationId", invocationID),
						zap.String("file", file),
					)

					raw, err := os.ReadFile(file)
					if err != nil {
						return fmt.Errorf("failed to read event file %s: %w", file, err)
					}
					var event schemas.ScanEvent
					if err := jsonAPI.Unmarshal(raw, &event); err != nil {
						return fmt.Errorf("failed to parse event file %s: %w", file, err)
					}

					log.Info("Processing scan event",
						zap.String("reportType", event.ReportType),
						zap.String("buildId", event.BuildID))

					level, err := dispatcher.Process(gctx, &event, rctx)
					if err != nil {
						return fmt.Errorf("processing %s: %w", file, err)
					}

					mu.Lock()
					results[i] = outcome{file: file, level: level}
					mu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.file, r.level)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sinkKind, "sink", sinkDryRun, "findings sink: securityhub, postgres or dry-run")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "maximum event files processed in parallel")
	return cmd
}
