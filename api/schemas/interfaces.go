package schemas

import (
	"context"
	"encoding/json"
)

// Extractor turns one scanner's native report body into an ordered sequence
// of raw findings. Implementations are pure: no I/O, no state, safe for
// concurrent use. An extractor must return a MalformedReport style error when
// the container structure it requires is absent, and an empty slice (not an
// error) when the container is present but holds no findings.
type Extractor interface {
	// ReportType returns the identifier this extractor is registered under.
	ReportType() string
	// Extract parses the raw report body and yields findings in the order
	// the scanner reported them.
	Extract(report json.RawMessage) ([]RawFinding, error)
}

// FindingSink submits one normalized finding to the downstream findings
// store. A returned error is fatal for the report being processed: the
// dispatcher stops and propagates it without rolling back earlier
// submissions.
type FindingSink interface {
	Submit(ctx context.Context, finding *NormalizedFinding) error
}

// ReportArchiver persists the raw report bytes to the artifact store and
// returns a locator URL for the archived object. Archival failure is
// recoverable: callers substitute a configured default locator and continue.
type ReportArchiver interface {
	Archive(ctx context.Context, body []byte, reportType, buildID, createdAt string) (string, error)
}
