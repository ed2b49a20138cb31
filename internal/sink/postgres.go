// File: internal/sink/postgres.go
package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scanrelay/api/schemas"
)

// DBPool abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres is a findings sink backed by a PostgreSQL table, for deployments
// that keep an internal findings store next to (or instead of) Security Hub.
// Each Submit is one insert: the dispatcher's ordered, fail-fast submission
// model needs no cross-finding transaction.
type Postgres struct {
	pool DBPool
	log  *zap.Logger
}

// NewPostgres creates the Postgres sink and verifies the connection.
func NewPostgres(ctx context.Context, pool DBPool, logger *zap.Logger) (*Postgres, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{
		pool: pool,
		log:  logger.Named("pgsink"),
	}, nil
}

const insertFindingSQL = `INSERT INTO findings (
	id, account_id, region, created_at, generator_id,
	normalized_severity, raw_severity, finding_type, finding_title,
	description, remediation_url, report_url, build_id, source_commit_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

// Submit implements schemas.FindingSink.
func (p *Postgres) Submit(ctx context.Context, f *schemas.NormalizedFinding) error {
	tag, err := p.pool.Exec(ctx, insertFindingSQL,
		f.ID, f.AccountID, f.Region, f.CreatedAt, f.GeneratorID,
		f.NormalizedSeverity, f.RawSeverity, f.FindingType, f.FindingTitle,
		f.Description, f.RemediationURL, f.ReportURL, f.BuildID, f.SourceCommitID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert finding %s: %w", f.ID, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("unexpected rows affected inserting finding %s: %d", f.ID, tag.RowsAffected())
	}
	p.log.Debug("Persisted finding", zap.String("id", f.ID))
	return nil
}

var _ schemas.FindingSink = (*Postgres)(nil)
