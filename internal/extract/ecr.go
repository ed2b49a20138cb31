// File: internal/extract/ecr.go
package extract

import (
	"encoding/json"
	"fmt"

	"github.com/xkilldash9x/scanrelay/api/schemas"
)

// ECR extracts findings from Amazon ECR image-scan reports. The scanner
// emits a flat finding list under imageScanFindings.findings; every entry
// yields exactly one raw finding, in original order, with no deduplication.
type ECR struct{}

// NewECR returns the image-scan extractor.
func NewECR() *ECR { return &ECR{} }

// ReportType implements schemas.Extractor.
func (*ECR) ReportType() string { return schemas.ReportTypeECR }

type ecrReport struct {
	ImageScanFindings *ecrImageScanFindings `json:"imageScanFindings"`
}

type ecrImageScanFindings struct {
	Findings *[]ecrFinding `json:"findings"`
}

type ecrFinding struct {
	Name     string `json:"name"`
	Severity string `json:"severity"`
	URI      string `json:"uri"`
}

// Extract implements schemas.Extractor.
func (e *ECR) Extract(report json.RawMessage) ([]schemas.RawFinding, error) {
	if len(report) == 0 {
		return nil, malformed(e.ReportType(), "report", nil)
	}

	var body ecrReport
	if err := jsonAPI.Unmarshal(report, &body); err != nil {
		return nil, malformed(e.ReportType(), "report", err)
	}
	if body.ImageScanFindings == nil {
		return nil, malformed(e.ReportType(), "imageScanFindings", nil)
	}
	if body.ImageScanFindings.Findings == nil {
		return nil, malformed(e.ReportType(), "imageScanFindings.findings", nil)
	}

	findings := *body.ImageScanFindings.Findings
	out := make([]schemas.RawFinding, 0, len(findings))
	for _, f := range findings {
		out = append(out, schemas.RawFinding{
			RawSeverity: f.Severity,
			Description: fmt.Sprintf("Name:%s---Severity:%s---URL:%s", f.Name, f.Severity, f.URI),
		})
	}
	return out, nil
}

var _ schemas.Extractor = (*ECR)(nil)
