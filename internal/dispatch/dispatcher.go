// File: internal/dispatch/dispatcher.go
// Description: Routes an inbound scan report to its extractor, applies the
// severity policy per finding, enriches through the catalogs, submits the
// surviving findings downstream in order, and computes the aggregate verdict.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scanrelay/api/schemas"
	"github.com/xkilldash9x/scanrelay/internal/catalog"
	"github.com/xkilldash9x/scanrelay/internal/extract"
	"github.com/xkilldash9x/scanrelay/internal/severity"
)

// NotLowThreshold is the ordinal score a finding must exceed to upgrade the
// report verdict from LOW to NOTLOW.
const NotLowThreshold = 20

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// route binds a report type to its extractor, the remediation-URL category
// used for catalog lookups, and the first sequence number embedded in
// outbound finding IDs. Image and dependency scans number findings from 1;
// the dynamic scanner has always numbered its alerts from 0.
type route struct {
	extractor           schemas.Extractor
	remediationCategory string
	firstSeq            int
}

// Dispatcher processes one scan report per invocation. It holds no state
// across invocations; the policy, catalog and routing table are read-only
// snapshots, so one Dispatcher is safely shared by concurrent callers.
type Dispatcher struct {
	policy           *severity.Policy
	catalog          *catalog.Catalog
	sink             schemas.FindingSink
	archiver         schemas.ReportArchiver
	routes           map[string]route
	defaultReportURL string
	log              *zap.Logger

	// now is swapped out in tests for deterministic timestamps.
	now func() time.Time
}

// New creates a Dispatcher with the static routing table for the supported
// scanner families. Supporting a new scanner means one extractor in
// internal/extract plus one entry here.
func New(
	policy *severity.Policy,
	cat *catalog.Catalog,
	sink schemas.FindingSink,
	archiver schemas.ReportArchiver,
	defaultReportURL string,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if policy == nil || cat == nil || sink == nil || archiver == nil {
		return nil, fmt.Errorf("cannot initialize dispatcher with nil dependencies")
	}
	return &Dispatcher{
		policy:   policy,
		catalog:  cat,
		sink:     sink,
		archiver: archiver,
		routes: map[string]route{
			schemas.ReportTypeECR:      {extractor: extract.NewECR(), remediationCategory: "cloudformation", firstSeq: 1},
			schemas.ReportTypeSnyk:     {extractor: extract.NewSnyk(), remediationCategory: "snyk", firstSeq: 1},
			schemas.ReportTypeOWASPZap: {extractor: extract.NewOWASPZap(), remediationCategory: "owasp", firstSeq: 0},
		},
		defaultReportURL: defaultReportURL,
		log:              logger.Named("dispatch"),
		now:              time.Now,
	}, nil
}

// Process runs one report through the full pipeline and returns the
// aggregate vulnerability verdict. Findings are submitted to the sink in
// extractor order (post exclusion filter); a sink error aborts the report
// with the already-submitted findings left in place.
func (d *Dispatcher) Process(ctx context.Context, event *schemas.ScanEvent, rctx schemas.ReportContext) (schemas.VulnerabilityLevel, error) {
	if event.MessageType != schemas.MessageTypeCodeScanReport {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMessageType, event.MessageType)
	}
	rt, ok := d.routes[event.ReportType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedReportType, event.ReportType)
	}

	log := d.log.With(
		zap.String("reportType", event.ReportType),
		zap.String("buildId", event.BuildID),
	)

	reportURL := d.archiveReport(ctx, event, log)

	raws, err := rt.extractor.Extract(event.Report)
	if err != nil {
		return "", err
	}
	log.Info("Extracted raw findings", zap.Int("count", len(raws)))

	findingType := d.catalog.FindingType(event.ReportType)
	findingTitle := d.catalog.FindingTitle(event.ReportType)
	remediationURL := d.catalog.RemediationURL(rt.remediationCategory)
	reportTypeLower := strings.ToLower(event.ReportType)
	generatorID := fmt.Sprintf("%s-%s-%s", reportTypeLower, event.SourceRepository, event.SourceBranch)
	processedAt := d.now().UTC().Format(time.RFC3339)

	level := schemas.LevelLow
	seq := rt.firstSeq
	for _, raw := range raws {
		if d.policy.IsExcluded(raw.RawSeverity) {
			log.Debug("Severity excluded by policy, dropping finding",
				zap.String("rawSeverity", raw.RawSeverity))
			continue
		}

		score := d.policy.Score(d.policy.Normalize(raw.RawSeverity))
		if score > NotLowThreshold {
			// Monotonic upgrade: never reverts to LOW within this report.
			level = schemas.LevelNotLow
		}

		finding := &schemas.NormalizedFinding{
			ID:                 fmt.Sprintf("%d-%s-%s", seq, reportTypeLower, event.BuildID),
			AccountID:          rctx.AccountID,
			Region:             rctx.Region,
			CreatedAt:          processedAt,
			GeneratorID:        generatorID,
			NormalizedSeverity: score,
			RawSeverity:        raw.RawSeverity,
			FindingType:        findingType,
			FindingTitle:       findingTitle,
			Description:        raw.Description,
			RemediationURL:     remediationURL,
			ReportURL:          reportURL,
			BuildID:            event.BuildID,
			SourceCommitID:     event.SourceCommitID,
		}
		seq++

		if err := d.sink.Submit(ctx, finding); err != nil {
			return "", &SinkSubmissionError{FindingID: finding.ID, Err: err}
		}
	}

	log.Info("Report processing completed", zap.String("vulnerabilityLevel", string(level)))
	return level, nil
}

// archiveReport stores the raw event in the artifact store and returns its
// locator. Archival failure is recoverable: the configured default locator is
// substituted and processing continues.
func (d *Dispatcher) archiveReport(ctx context.Context, event *schemas.ScanEvent, log *zap.Logger) string {
	body, err := jsonAPI.Marshal(event)
	if err == nil {
		var url string
		url, err = d.archiver.Archive(ctx, body, event.ReportType, event.BuildID, event.CreatedAt)
		if err == nil {
			return url
		}
	}
	log.Warn("Failed to archive raw report, using default report URL", zap.Error(err))
	return d.defaultReportURL
}
