// -- cmd/components.go --
package cmd

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scanrelay/api/schemas"
	"github.com/xkilldash9x/scanrelay/internal/archive"
	"github.com/xkilldash9x/scanrelay/internal/catalog"
	"github.com/xkilldash9x/scanrelay/internal/config"
	"github.com/xkilldash9x/scanrelay/internal/dispatch"
	"github.com/xkilldash9x/scanrelay/internal/severity"
	"github.com/xkilldash9x/scanrelay/internal/sink"
)

// Sink selector values accepted by the --sink flag.
const (
	sinkSecurityHub = "securityhub"
	sinkPostgres    = "postgres"
	sinkDryRun      = "dry-run"
)

// buildDispatcher assembles the processing pipeline: AWS clients, the chosen
// findings sink, the severity policy and catalogs, all wired into a single
// Dispatcher. It also resolves the caller identity so findings carry the
// account they were produced in.
func buildDispatcher(ctx context.Context, cfg *config.Config, sinkKind string, logger *zap.Logger) (*dispatch.Dispatcher, schemas.ReportContext, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, schemas.ReportContext{}, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	identity, err := sts.NewFromConfig(awsCfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, schemas.ReportContext{}, fmt.Errorf("failed to resolve caller identity: %w", err)
	}
	rctx := schemas.ReportContext{
		AccountID: aws.ToString(identity.Account),
		Region:    cfg.AWS.Region,
	}

	findingSink, err := buildSink(ctx, cfg, sinkKind, awsCfg, logger)
	if err != nil {
		return nil, schemas.ReportContext{}, err
	}

	archiver := archive.NewS3(s3.NewFromConfig(awsCfg), cfg.AWS.ArtifactBucket, cfg.AWS.Region, logger)
	policy := severity.NewPolicy(cfg.Severity.Scale, cfg.Severity.Abbreviations, cfg.Severity.Excluded, logger)
	cat := catalog.New(cfg.Catalog.FindingTypes, cfg.Catalog.FindingTitles, cfg.Catalog.RemediationURLs, cfg.Catalog.DefaultReportURL)

	d, err := dispatch.New(policy, cat, findingSink, archiver, cfg.Catalog.DefaultReportURL, logger)
	if err != nil {
		return nil, schemas.ReportContext{}, err
	}

	logger.Info("Pipeline assembled",
		zap.String("sink", sinkKind),
		zap.String("accountId", rctx.AccountID),
		zap.String("region", rctx.Region))
	return d, rctx, nil
}

func buildSink(ctx context.Context, cfg *config.Config, sinkKind string, awsCfg aws.Config, logger *zap.Logger) (schemas.FindingSink, error) {
	switch sinkKind {
	case sinkSecurityHub:
		return sink.NewSecurityHub(securityhub.NewFromConfig(awsCfg), cfg.AWS.Partition, logger), nil
	case sinkPostgres:
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("database.url is required for the %s sink", sinkPostgres)
		}
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		return sink.NewPostgres(ctx, pool, logger)
	case sinkDryRun:
		return sink.NewLog(logger), nil
	default:
		return nil, fmt.Errorf("unknown sink %q (valid: %s, %s, %s)", sinkKind, sinkSecurityHub, sinkPostgres, sinkDryRun)
	}
}
