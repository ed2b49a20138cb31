// -- cmd/serve.go --
package cmd

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scanrelay/api/schemas"
	"github.com/xkilldash9x/scanrelay/internal/observability"
)

// newServeCmd creates the `serve` command, which registers the pipeline as a
// Lambda handler. The dispatcher is built once at cold start and shared across
// invocations.
func newServeCmd() *cobra.Command {
	var sinkKind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as an AWS Lambda handler for inbound scan events",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			dispatcher, rctx, err := buildDispatcher(ctx, cfg, sinkKind, logger)
			if err != nil {
				return err
			}

			handler := func(hctx context.Context, event schemas.ScanEvent) (string, error) {
				log := logger
				if lc, ok := lambdacontext.FromContext(hctx); ok {
					log = logger.With(zap.String("requestId", lc.AwsRequestID))
				}
				log.Info("Received scan event",
					zap.String("reportType", event.ReportType),
					zap.String("buildId", event.BuildID))

				level, err := dispatcher.Process(hctx, &event, rctx)
				if err != nil {
					log.Error("Report processing failed", zap.Error(err))
					return "", err
				}
				return string(level), nil
			}

			lambda.StartWithOptions(handler, lambda.WithContext(ctx))
			return nil
		},
	}

	cmd.Flags().StringVar(&sinkKind, "sink", sinkSecurityHub, "findings sink: securityhub, postgres or dry-run")
	return cmd
}
