// File: internal/sink/securityhub.go
package sink

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	sdktypes "github.com/aws/aws-sdk-go-v2/service/securityhub/types"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scanrelay/api/schemas"
)

// asffSchemaVersion is the AWS Security Finding Format revision the sink
// emits.
const asffSchemaVersion = "2018-10-08"

// SecurityHubAPI abstracts the Security Hub client so tests can substitute a
// fake without a live AWS endpoint.
type SecurityHubAPI interface {
	BatchImportFindings(ctx context.Context, params *securityhub.BatchImportFindingsInput, optFns ...func(*securityhub.Options)) (*securityhub.BatchImportFindingsOutput, error)
}

// SecurityHub submits normalized findings to AWS Security Hub, one ASFF
// finding per submission. A non-zero FailedCount in the response is an error:
// the dispatcher treats it as fatal for the report.
type SecurityHub struct {
	client    SecurityHubAPI
	partition string
	log       *zap.Logger
}

// NewSecurityHub creates the Security Hub finding sink.
func NewSecurityHub(client SecurityHubAPI, partition string, logger *zap.Logger) *SecurityHub {
	return &SecurityHub{
		client:    client,
		partition: partition,
		log:       logger.Named("securityhub"),
	}
}

// Submit implements schemas.FindingSink.
func (s *SecurityHub) Submit(ctx context.Context, f *schemas.NormalizedFinding) error {
	s.log.Debug("Importing finding to Security Hub", zap.String("id", f.ID))

	finding := sdktypes.AwsSecurityFinding{
		SchemaVersion: aws.String(asffSchemaVersion),
		Id:            aws.String(f.ID),
		ProductArn:    aws.String(s.productARN(f.Region, f.AccountID)),
		GeneratorId:   aws.String(f.GeneratorID),
		AwsAccountId:  aws.String(f.AccountID),
		Types: []string{
			fmt.Sprintf("Software and Configuration Checks/AWS Security Best Practices/%s", f.FindingType),
		},
		CreatedAt: aws.String(f.CreatedAt),
		UpdatedAt: aws.String(f.CreatedAt),
		Severity: &sdktypes.Severity{
			Normalized: aws.Int32(int32(f.NormalizedSeverity)),
			Original:   aws.String(f.RawSeverity),
		},
		Title:       aws.String(f.FindingTitle),
		Description: aws.String(f.Description),
		Remediation: &sdktypes.Remediation{
			Recommendation: &sdktypes.Recommendation{
				Text: aws.String("See documentation for remediation steps"),
				Url:  aws.String(f.RemediationURL),
			},
		},
		SourceUrl: aws.String(f.ReportURL),
		Resources: []sdktypes.Resource{
			{
				Id:        aws.String(f.BuildID),
				Type:      aws.String("CodeBuild"),
				Partition: sdktypes.Partition(s.partition),
				Region:    aws.String(f.Region),
			},
		},
	}

	out, err := s.client.BatchImportFindings(ctx, &securityhub.BatchImportFindingsInput{
		Findings: []sdktypes.AwsSecurityFinding{finding},
	})
	if err != nil {
		return fmt.Errorf("batch import findings: %w", err)
	}
	if failed := aws.ToInt32(out.FailedCount); failed > 0 {
		reason := "unknown"
		if len(out.FailedFindings) > 0 {
			reason = aws.ToString(out.FailedFindings[0].ErrorMessage)
		}
		return fmt.Errorf("security hub rejected %d finding(s): %s", failed, reason)
	}

	s.log.Info("Imported finding", zap.String("id", f.ID))
	return nil
}

// productARN builds the default product ARN findings are imported under.
func (s *SecurityHub) productARN(region, accountID string) string {
	return fmt.Sprintf("arn:%s:securityhub:%s:%s:product/%s/default", s.partition, region, accountID, accountID)
}

var _ schemas.FindingSink = (*SecurityHub)(nil)
