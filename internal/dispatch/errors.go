// File: internal/dispatch/errors.go
package dispatch

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to the caller before any extraction or submission
// has happened. Both are fatal for the invocation.
var (
	ErrUnsupportedMessageType = errors.New("unsupported message type")
	ErrUnsupportedReportType  = errors.New("unsupported report type")
)

// SinkSubmissionError reports that the outbound findings sink rejected a
// finding. It is fatal by current policy: processing of the report stops and
// findings already submitted are not rolled back. There is deliberately no
// transactional guarantee across the findings of one report.
type SinkSubmissionError struct {
	FindingID string
	Err       error
}

func (e *SinkSubmissionError) Error() string {
	return fmt.Sprintf("sink rejected finding %s: %v", e.FindingID, e.Err)
}

func (e *SinkSubmissionError) Unwrap() error { return e.Err }
