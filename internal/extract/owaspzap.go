// File: internal/extract/owaspzap.go
package extract

import (
	"encoding/json"
	"fmt"

	"github.com/xkilldash9x/scanrelay/api/schemas"
)

// OWASPZap extracts findings from OWASP ZAP dynamic-scan reports.
//
// ZAP has no plain severity field; it reports a composite risk description
// such as "High (Medium)". The severity token is the first three characters
// of that field, which downstream normalization expands through the
// abbreviation table (HIG -> HIGH, MED -> MEDIUM, ...). Only the first site's
// alert list is read: the pipeline scans one application per report.
type OWASPZap struct{}

// NewOWASPZap returns the dynamic-scan extractor.
func NewOWASPZap() *OWASPZap { return &OWASPZap{} }

// ReportType implements schemas.Extractor.
func (*OWASPZap) ReportType() string { return schemas.ReportTypeOWASPZap }

type zapReport struct {
	Site *[]zapSite `json:"site"`
}

type zapSite struct {
	Alerts *[]zapAlert `json:"alerts"`
}

type zapAlert struct {
	Alert     string            `json:"alert"`
	RiskDesc  string            `json:"riskdesc"`
	Instances []json.RawMessage `json:"instances"`
}

// Extract implements schemas.Extractor.
func (z *OWASPZap) Extract(report json.RawMessage) ([]schemas.RawFinding, error) {
	if len(report) == 0 {
		return nil, malformed(z.ReportType(), "report", nil)
	}

	var body zapReport
	if err := jsonAPI.Unmarshal(report, &body); err != nil {
		return nil, malformed(z.ReportType(), "report", err)
	}
	if body.Site == nil || len(*body.Site) == 0 {
		return nil, malformed(z.ReportType(), "site", nil)
	}
	first := (*body.Site)[0]
	if first.Alerts == nil {
		return nil, malformed(z.ReportType(), "site[0].alerts", nil)
	}

	alerts := *first.Alerts
	out := make([]schemas.RawFinding, 0, len(alerts))
	for _, a := range alerts {
		token := a.RiskDesc
		if len(token) > 3 {
			token = token[:3]
		}
		out = append(out, schemas.RawFinding{
			RawSeverity: token,
			Description: fmt.Sprintf("Vulnerability:%s---Instances:%d", a.Alert, len(a.Instances)),
		})
	}
	return out, nil
}

var _ schemas.Extractor = (*OWASPZap)(nil)
