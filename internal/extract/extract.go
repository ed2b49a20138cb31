// File: internal/extract/extract.go
//
// One extractor per supported scanner family. Extractors are pure functions
// over the raw report body: no I/O, no shared state, ordered output. Adding a
// scanner format means adding one file here and one routing-table entry in
// internal/dispatch.
package extract

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// jsonAPI is the shared json-iterator instance used by all extractors.
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// MalformedReportError reports that a report body lacks the container
// structure its extractor requires. It carries enough context to identify
// which report and field were malformed. A present-but-empty container is NOT
// malformed; it simply yields zero findings.
type MalformedReportError struct {
	ReportType string
	Field      string
	Err        error
}

func (e *MalformedReportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s report: field %q: %v", e.ReportType, e.Field, e.Err)
	}
	return fmt.Sprintf("malformed %s report: missing required field %q", e.ReportType, e.Field)
}

func (e *MalformedReportError) Unwrap() error { return e.Err }

func malformed(reportType, field string, err error) *MalformedReportError {
	return &MalformedReportError{ReportType: reportType, Field: field, Err: err}
}
