package schemas

import "encoding/json"

// MessageTypeCodeScanReport is the sentinel every inbound event must carry in
// its messageType field to be recognized as a scan report.
const MessageTypeCodeScanReport = "CodeScanReport"

// Report type identifiers for the supported scanner families. The set is
// closed but extensible: adding a scanner means adding a constant here, an
// extractor in internal/extract, and one routing-table entry in
// internal/dispatch.
const (
	ReportTypeECR      = "ECR"
	ReportTypeSnyk     = "SNYK"
	ReportTypeOWASPZap = "OWASP-Zap"
)

// ScanEvent is the inbound unit of work: one scan report emitted by the CI
// pipeline, wrapping the scanner's native JSON output untouched in Report.
// The shape of Report depends entirely on ReportType and is only interpreted
// by the extractor registered for that type.
type ScanEvent struct {
	MessageType      string          `json:"messageType"`
	ReportType       string          `json:"reportType"`
	Report           json.RawMessage `json:"report"`
	SourceRepository string          `json:"source_repository"`
	SourceBranch     string          `json:"source_branch"`
	SourceCommitID   string          `json:"source_commitid"`
	BuildID          string          `json:"build_id"`
	CreatedAt        string          `json:"createdAt"`
}

// ReportContext carries the deployment identity the entrypoint resolves once
// per invocation and the pipeline stamps onto every outbound finding.
type ReportContext struct {
	AccountID string
	Region    string
}
