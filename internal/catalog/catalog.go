// File: internal/catalog/catalog.go
package catalog

import "fmt"

// Catalog maps report-type identifiers to the human-facing strings stamped
// onto outbound findings. Every lookup is pure and total: unknown input
// degrades to a synthesized or default value, never to an error, so scanners
// absent from the configuration still produce presentable findings.
type Catalog struct {
	findingTypes    map[string]string
	findingTitles   map[string]string
	remediationURLs map[string]string
	defaultURL      string
}

// New builds a Catalog from the configured maps. Nil maps are fine.
func New(findingTypes, findingTitles, remediationURLs map[string]string, defaultReportURL string) *Catalog {
	return &Catalog{
		findingTypes:    findingTypes,
		findingTitles:   findingTitles,
		remediationURLs: remediationURLs,
		defaultURL:      defaultReportURL,
	}
}

// FindingType returns the configured finding type for a report type, or a
// synthesized "<reportType> code scan" when no mapping exists.
func (c *Catalog) FindingType(reportType string) string {
	if v, ok := c.findingTypes[reportType]; ok {
		return v
	}
	return fmt.Sprintf("%s code scan", reportType)
}

// FindingTitle returns the configured finding title for a report type, or a
// synthesized "<reportType> Analysis" when no mapping exists.
func (c *Catalog) FindingTitle(reportType string) string {
	if v, ok := c.findingTitles[reportType]; ok {
		return v
	}
	return fmt.Sprintf("%s Analysis", reportType)
}

// RemediationURL returns the configured remediation link for a category, or
// the default report URL when no mapping exists. The category is the fixed
// per-report-type tag from the dispatcher's routing table, not the report
// type itself.
func (c *Catalog) RemediationURL(category string) string {
	if v, ok := c.remediationURLs[category]; ok {
		return v
	}
	return c.defaultURL
}
