// File: internal/sink/log.go
package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scanrelay/api/schemas"
)

// Log is a findings sink that only writes to the structured log. It backs the
// CLI's dry-run mode, where operators want to see what WOULD be submitted
// without touching the downstream store.
type Log struct {
	log *zap.Logger
}

// NewLog creates the log-only finding sink.
func NewLog(logger *zap.Logger) *Log {
	return &Log{log: logger.Named("drysink")}
}

// Submit implements schemas.FindingSink. It never fails.
func (l *Log) Submit(_ context.Context, f *schemas.NormalizedFinding) error {
	l.log.Info("Dry-run finding",
		zap.String("id", f.ID),
		zap.String("rawSeverity", f.RawSeverity),
		zap.Int("normalizedSeverity", f.NormalizedSeverity),
		zap.String("title", f.FindingTitle),
		zap.String("description", f.Description),
	)
	return nil
}

var _ schemas.FindingSink = (*Log)(nil)
