package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scanrelay/api/schemas"
	"github.com/xkilldash9x/scanrelay/internal/catalog"
	"github.com/xkilldash9x/scanrelay/internal/extract"
	"github.com/xkilldash9x/scanrelay/internal/severity"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// -- Fakes --

// captureSink records submitted findings in order and can be armed to fail
// on the n-th submission (1-based).
type captureSink struct {
	submissions []schemas.NormalizedFinding
	failOn      int
}

func (s *captureSink) Submit(_ context.Context, f *schemas.NormalizedFinding) error {
	if s.failOn > 0 && len(s.submissions)+1 == s.failOn {
		return errors.New("downstream store unavailable")
	}
	s.submissions = append(s.submissions, *f)
	return nil
}

type stubArchiver struct {
	url   string
	err   error
	calls int
}

func (a *stubArchiver) Archive(_ context.Context, _ []byte, _, _, _ string) (string, error) {
	a.calls++
	return a.url, a.err
}

// -- Fixtures --

func testPolicy(t *testing.T) *severity.Policy {
	t.Helper()
	return severity.NewPolicy(
		map[string]int{"CRITICAL": 40, "HIGH": 30, "MEDIUM": 20, "LOW": 5},
		map[string]string{"CRI": "CRITICAL", "HIG": "HIGH", "MED": "MEDIUM", "LOW": "LOW"},
		[]string{"INFORMATIONAL"},
		zap.NewNop(),
	)
}

func testCatalog() *catalog.Catalog {
	return catalog.New(
		map[string]string{"ECR": "Container Image Vulnerability"},
		map[string]string{"ECR": "ECR Image Scan"},
		map[string]string{
			"cloudformation": "https://example.com/remediate/ecr",
			"snyk":           "https://example.com/remediate/snyk",
			"owasp":          "https://example.com/remediate/owasp",
		},
		"https://example.com/default-report",
	)
}

func newTestDispatcher(t *testing.T, sink schemas.FindingSink, archiver schemas.ReportArchiver) *Dispatcher {
	t.Helper()
	d, err := New(testPolicy(t), testCatalog(), sink, archiver, "https://example.com/default-report", zap.NewNop())
	require.NoError(t, err)
	d.now = func() time.Time { return time.Date(2025, 9, 4, 12, 0, 0, 0, time.UTC) }
	return d
}

func ecrEvent(findings string) *schemas.ScanEvent {
	return &schemas.ScanEvent{
		MessageType:      schemas.MessageTypeCodeScanReport,
		ReportType:       schemas.ReportTypeECR,
		Report:           json.RawMessage(fmt.Sprintf(`{"imageScanFindings": {"findings": %s}}`, findings)),
		SourceRepository: "payments-service",
		SourceBranch:     "main",
		SourceCommitID:   "abc1234",
		BuildID:          "build-77",
		CreatedAt:        "2025-09-04T10:00:00Z",
	}
}

var testCtx = schemas.ReportContext{AccountID: "123456789012", Region: "eu-west-1"}

// -- Tests --

func TestProcess_ImageScan_EmitsInOrderAndUpgradesVerdict(t *testing.T) {
	sink := &captureSink{}
	archiver := &stubArchiver{url: "https://example.com/archive/report.json"}
	d := newTestDispatcher(t, sink, archiver)

	event := ecrEvent(`[
		{"name": "CVE-1", "severity": "CRITICAL", "uri": "https://cve/1"},
		{"name": "CVE-2", "severity": "LOW", "uri": "https://cve/2"}
	]`)

	level, err := d.Process(context.Background(), event, testCtx)
	require.NoError(t, err)
	assert.Equal(t, schemas.LevelNotLow, level)

	require.Len(t, sink.submissions, 2)
	first, second := sink.submissions[0], sink.submissions[1]

	assert.Equal(t, "1-ecr-build-77", first.ID)
	assert.Equal(t, "2-ecr-build-77", second.ID)
	assert.Equal(t, 40, first.NormalizedSeverity)
	assert.Equal(t, "CRITICAL", first.RawSeverity)
	assert.Equal(t, 5, second.NormalizedSeverity)
	assert.Equal(t, "ecr-payments-service-main", first.GeneratorID)
	assert.Equal(t, "Container Image Vulnerability", first.FindingType)
	assert.Equal(t, "ECR Image Scan", first.FindingTitle)
	assert.Equal(t, "https://example.com/remediate/ecr", first.RemediationURL)
	assert.Equal(t, "https://example.com/archive/report.json", first.ReportURL)
	assert.Equal(t, "123456789012", first.AccountID)
	assert.Equal(t, "eu-west-1", first.Region)
	assert.Equal(t, "2025-09-04T12:00:00Z", first.CreatedAt)
	assert.Equal(t, "build-77", first.BuildID)
	assert.Equal(t, "abc1234", first.SourceCommitID)
	assert.Equal(t, 1, archiver.calls)
}

func TestProcess_AllFindingsAtOrBelowThreshold_VerdictLow(t *testing.T) {
	sink := &captureSink{}
	d := newTestDispatcher(t, sink, &stubArchiver{url: "u"})

	// MEDIUM scores exactly 20: the threshold is strict, so it stays LOW.
	event := ecrEvent(`[
		{"name": "CVE-1", "severity": "MEDIUM", "uri": "https://cve/1"},
		{"name": "CVE-2", "severity": "LOW", "uri": "https://cve/2"}
	]`)

	level, err := d.Process(context.Background(), event, testCtx)
	require.NoError(t, err)
	assert.Equal(t, schemas.LevelLow, level)
	assert.Len(t, sink.submissions, 2)
}

func TestProcess_ExcludedRawSeverityNeverReachesSink(t *testing.T) {
	sink := &captureSink{}
	d := newTestDispatcher(t, sink, &stubArchiver{url: "u"})

	// INFORMATIONAL is excluded by raw label. The surviving findings keep a
	// contiguous ID sequence.
	event := ecrEvent(`[
		{"name": "CVE-1", "severity": "INFORMATIONAL", "uri": "https://cve/1"},
		{"name": "CVE-2", "severity": "HIGH", "uri": "https://cve/2"},
		{"name": "CVE-3", "severity": "INFORMATIONAL", "uri": "https://cve/3"},
		{"name": "CVE-4", "severity": "LOW", "uri": "https://cve/4"}
	]`)

	level, err := d.Process(context.Background(), event, testCtx)
	require.NoError(t, err)
	assert.Equal(t, schemas.LevelNotLow, level)

	require.Len(t, sink.submissions, 2)
	assert.Equal(t, "1-ecr-build-77", sink.submissions[0].ID)
	assert.Equal(t, "HIGH", sink.submissions[0].RawSeverity)
	assert.Equal(t, "2-ecr-build-77", sink.submissions[1].ID)
	assert.Equal(t, "LOW", sink.submissions[1].RawSeverity)
}

func TestProcess_DependencyScan_DedupDrivesVerdict(t *testing.T) {
	sink := &captureSink{}
	d := newTestDispatcher(t, sink, &stubArchiver{url: "u"})

	// The third entry repeats title "A" with CRITICAL severity; dedup keeps
	// the first occurrence, so the verdict is computed from LOW and MEDIUM
	// only.
	event := &schemas.ScanEvent{
		MessageType: schemas.MessageTypeCodeScanReport,
		ReportType:  schemas.ReportTypeSnyk,
		Report: json.RawMessage(`{"vulnerabilities": [
			{"title": "A", "severity": "LOW", "packageName": "p1", "cvssScore": 5},
			{"title": "B", "severity": "MEDIUM", "packageName": "p2", "cvssScore": 10},
			{"title": "A", "severity": "CRITICAL", "packageName": "p1", "cvssScore": 99}
		]}`),
		SourceRepository: "payments-service",
		SourceBranch:     "main",
		BuildID:          "build-77",
	}

	level, err := d.Process(context.Background(), event, testCtx)
	require.NoError(t, err)
	assert.Equal(t, schemas.LevelLow, level)

	require.Len(t, sink.submissions, 2)
	assert.Equal(t, "1-snyk-build-77", sink.submissions[0].ID)
	assert.Equal(t, "https://example.com/remediate/snyk", sink.submissions[0].RemediationURL)
	// Catalog has no SNYK entries; the synthesized fallbacks apply.
	assert.Equal(t, "SNYK code scan", sink.submissions[0].FindingType)
	assert.Equal(t, "SNYK Analysis", sink.submissions[0].FindingTitle)
}

func TestProcess_DynamicScan_AbbreviationTokenAndZeroBasedIDs(t *testing.T) {
	sink := &captureSink{}
	d := newTestDispatcher(t, sink, &stubArchiver{url: "u"})

	event := &schemas.ScanEvent{
		MessageType: schemas.MessageTypeCodeScanReport,
		ReportType:  schemas.ReportTypeOWASPZap,
		Report: json.RawMessage(`{"site": [{"alerts": [
			{"alert": "Reflected XSS", "riskdesc": "High (Medium)", "instances": [{}, {}]}
		]}]}`),
		SourceRepository: "webshop",
		SourceBranch:     "develop",
		BuildID:          "build-9",
	}

	level, err := d.Process(context.Background(), event, testCtx)
	require.NoError(t, err)
	// "Hig" normalizes to HIGH (30) which exceeds the threshold.
	assert.Equal(t, schemas.LevelNotLow, level)

	require.Len(t, sink.submissions, 1)
	f := sink.submissions[0]
	assert.Equal(t, "0-owasp-zap-build-9", f.ID)
	assert.Equal(t, "Hig", f.RawSeverity)
	assert.Equal(t, 30, f.NormalizedSeverity)
	assert.Equal(t, "https://example.com/remediate/owasp", f.RemediationURL)
	assert.Equal(t, "owasp-zap-webshop-develop", f.GeneratorID)
}

func TestProcess_UnsupportedMessageType(t *testing.T) {
	sink := &captureSink{}
	archiver := &stubArchiver{url: "u"}
	d := newTestDispatcher(t, sink, archiver)

	event := ecrEvent(`[]`)
	event.MessageType = "DeploymentNotification"

	_, err := d.Process(context.Background(), event, testCtx)
	require.ErrorIs(t, err, ErrUnsupportedMessageType)
	assert.Empty(t, sink.submissions)
	assert.Zero(t, archiver.calls)
}

func TestProcess_UnsupportedReportType_NoSubmissions(t *testing.T) {
	sink := &captureSink{}
	archiver := &stubArchiver{url: "u"}
	d := newTestDispatcher(t, sink, archiver)

	event := ecrEvent(`[]`)
	event.ReportType = "FOO"

	_, err := d.Process(context.Background(), event, testCtx)
	require.ErrorIs(t, err, ErrUnsupportedReportType)
	assert.Empty(t, sink.submissions)
	assert.Zero(t, archiver.calls)
}

func TestProcess_MalformedReport_NoSubmissions(t *testing.T) {
	sink := &captureSink{}
	d := newTestDispatcher(t, sink, &stubArchiver{url: "u"})

	event := ecrEvent(`[]`)
	event.Report = json.RawMessage(`{}`)

	_, err := d.Process(context.Background(), event, testCtx)
	var merr *extract.MalformedReportError
	require.ErrorAs(t, err, &merr)
	assert.Empty(t, sink.submissions)
}

func TestProcess_SinkFailureHaltsMidReport(t *testing.T) {
	sink := &captureSink{failOn: 2}
	d := newTestDispatcher(t, sink, &stubArchiver{url: "u"})

	event := ecrEvent(`[
		{"name": "CVE-1", "severity": "LOW", "uri": "https://cve/1"},
		{"name": "CVE-2", "severity": "LOW", "uri": "https://cve/2"},
		{"name": "CVE-3", "severity": "LOW", "uri": "https://cve/3"}
	]`)

	_, err := d.Process(context.Background(), event, testCtx)
	var serr *SinkSubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "2-ecr-build-77", serr.FindingID)

	// The first finding was submitted exactly once; the third never was.
	require.Len(t, sink.submissions, 1)
	assert.Equal(t, "1-ecr-build-77", sink.submissions[0].ID)
}

func TestProcess_ArchivalFailureFallsBackToDefaultURL(t *testing.T) {
	sink := &captureSink{}
	d := newTestDispatcher(t, sink, &stubArchiver{err: errors.New("bucket gone")})

	event := ecrEvent(`[{"name": "CVE-1", "severity": "LOW", "uri": "https://cve/1"}]`)

	level, err := d.Process(context.Background(), event, testCtx)
	require.NoError(t, err)
	assert.Equal(t, schemas.LevelLow, level)
	require.Len(t, sink.submissions, 1)
	assert.Equal(t, "https://example.com/default-report", sink.submissions[0].ReportURL)
}

func TestNew_NilDependenciesRejected(t *testing.T) {
	_, err := New(nil, testCatalog(), &captureSink{}, &stubArchiver{}, "u", zap.NewNop())
	require.Error(t, err)
}
