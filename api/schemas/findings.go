package schemas

// -- Finding Schemas --

// RawFinding is a scanner-native finding as produced by an extractor, before
// severity normalization or catalog enrichment. It lives only for the duration
// of one dispatch pass and is never persisted.
type RawFinding struct {
	// RawSeverity is the scanner's own severity token. It may be a full word
	// in any casing, or a three letter abbreviation.
	RawSeverity string
	// Description is diagnostic text composed from format specific fields.
	Description string
}

// NormalizedFinding is the uniform outbound record. Exactly one is produced
// for every RawFinding that survives the exclusion filter, in extractor order.
type NormalizedFinding struct {
	// ID is `<seq>-<reporttype>-<buildID>`, unique within a report and stable
	// for a given report and sequence position.
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	Region    string `json:"region"`

	// CreatedAt is the processing-time timestamp (RFC3339), distinct from the
	// upstream ScanEvent.CreatedAt.
	CreatedAt string `json:"createdAt"`

	// GeneratorID identifies the producing pipeline:
	// `<reporttype>-<sourceRepository>-<sourceBranch>`.
	GeneratorID string `json:"generatorId"`

	NormalizedSeverity int    `json:"normalizedSeverity"`
	RawSeverity        string `json:"rawSeverity"` // original label, kept for audit
	FindingType        string `json:"findingType"`
	FindingTitle       string `json:"findingTitle"`
	Description        string `json:"description"`
	RemediationURL     string `json:"remediationUrl"`

	// ReportURL links to the archived raw report, or to the configured
	// default locator when archival failed.
	ReportURL      string `json:"reportUrl"`
	BuildID        string `json:"buildId"`
	SourceCommitID string `json:"sourceCommitId"`
}

// VulnerabilityLevel is the aggregate verdict for one processed report.
type VulnerabilityLevel string

const (
	// LevelLow is the initial verdict; it holds when no surviving finding
	// scored above the dispatch threshold.
	LevelLow VulnerabilityLevel = "LOW"
	// LevelNotLow is the upgraded verdict. The upgrade is monotonic: once any
	// finding crosses the threshold the report can never go back to LOW.
	LevelNotLow VulnerabilityLevel = "NOTLOW"
)
