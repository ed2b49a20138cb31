// File: internal/extract/snyk.go
package extract

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/xkilldash9x/scanrelay/api/schemas"
)

// Snyk extracts findings from Snyk dependency-scan reports.
//
// The vulnerability list is deduplicated by title: the FIRST occurrence of a
// title wins entirely, and later entries with the same title are dropped even
// when their severity, package or score differ. This mirrors how duplicate
// advisories surface across transitive dependency paths and is load-bearing
// behavior, not an approximation.
type Snyk struct{}

// NewSnyk returns the dependency-scan extractor.
func NewSnyk() *Snyk { return &Snyk{} }

// ReportType implements schemas.Extractor.
func (*Snyk) ReportType() string { return schemas.ReportTypeSnyk }

type snykReport struct {
	Vulnerabilities *[]snykVulnerability `json:"vulnerabilities"`
}

type snykVulnerability struct {
	Title       string  `json:"title"`
	Severity    string  `json:"severity"`
	PackageName string  `json:"packageName"`
	CVSSScore   float64 `json:"cvssScore"`
}

// Extract implements schemas.Extractor.
func (s *Snyk) Extract(report json.RawMessage) ([]schemas.RawFinding, error) {
	if len(report) == 0 {
		return nil, malformed(s.ReportType(), "report", nil)
	}

	var body snykReport
	if err := jsonAPI.Unmarshal(report, &body); err != nil {
		return nil, malformed(s.ReportType(), "report", err)
	}
	if body.Vulnerabilities == nil {
		return nil, malformed(s.ReportType(), "vulnerabilities", nil)
	}

	vulns := *body.Vulnerabilities
	out := make([]schemas.RawFinding, 0, len(vulns))
	seen := make(map[string]struct{}, len(vulns))
	for _, v := range vulns {
		if _, dup := seen[v.Title]; dup {
			continue
		}
		seen[v.Title] = struct{}{}
		out = append(out, schemas.RawFinding{
			RawSeverity: v.Severity,
			Description: fmt.Sprintf("Title:%s---Package:%s---Severity:%s---CVSSv3_Score:%s",
				v.Title, v.PackageName, v.Severity, strconv.FormatFloat(v.CVSSScore, 'f', -1, 64)),
		})
	}
	return out, nil
}

var _ schemas.Extractor = (*Snyk)(nil)
