// File: internal/archive/s3.go
package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scanrelay/api/schemas"
)

// S3API abstracts the S3 client so tests can substitute a fake.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 archives raw scan reports in the artifact bucket under
// reports/<reportType>/<buildID>-<createdAt>.json, KMS-encrypted at rest, and
// returns a console locator for the archived object.
type S3 struct {
	client S3API
	bucket string
	region string
	log    *zap.Logger
}

// NewS3 creates the S3 report archiver.
func NewS3(client S3API, bucket, region string, logger *zap.Logger) *S3 {
	return &S3{
		client: client,
		bucket: bucket,
		region: region,
		log:    logger.Named("archive"),
	}
}

// Archive implements schemas.ReportArchiver.
func (a *S3) Archive(ctx context.Context, body []byte, reportType, buildID, createdAt string) (string, error) {
	key := fmt.Sprintf("reports/%s/%s-%s.json", reportType, buildID, createdAt)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(a.bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(body),
		ServerSideEncryption: s3types.ServerSideEncryptionAwsKms,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", key, err)
	}

	a.log.Info("Archived raw report", zap.String("key", key))
	return fmt.Sprintf("https://s3.console.aws.amazon.com/s3/object/%s/%s?region=%s", a.bucket, key, a.region), nil
}

var _ schemas.ReportArchiver = (*S3)(nil)
