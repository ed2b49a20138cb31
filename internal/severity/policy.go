// File: internal/severity/policy.go
package severity

import (
	"strings"

	"go.uber.org/zap"
)

// DefaultScore is returned for canonical labels absent from the configured
// scale. Unknown severities are deliberately treated as low severity instead
// of being rejected, so scanners can introduce new vocabularies without
// breaking the pipeline.
const DefaultScore = 1

// Policy normalizes raw severity labels to canonical ones, maps them onto the
// configured ordinal scale, and decides per-severity exclusion. It is an
// immutable configuration snapshot, safe for concurrent use.
type Policy struct {
	scale    map[string]int
	abbrev   map[string]string
	excluded map[string]struct{}
	log      *zap.Logger
}

// NewPolicy builds a Policy from the configured scale, abbreviation table and
// exclusion list. Abbreviation keys are uppercased defensively; exclusion
// entries are kept verbatim because exclusion matches the raw scanner token.
func NewPolicy(scale map[string]int, abbreviations map[string]string, excluded []string, logger *zap.Logger) *Policy {
	p := &Policy{
		scale:    make(map[string]int, len(scale)),
		abbrev:   make(map[string]string, len(abbreviations)),
		excluded: make(map[string]struct{}, len(excluded)),
		log:      logger.Named("severity"),
	}
	for label, score := range scale {
		p.scale[strings.ToUpper(label)] = score
	}
	for abbr, full := range abbreviations {
		p.abbrev[strings.ToUpper(abbr)] = strings.ToUpper(full)
	}
	for _, label := range excluded {
		p.excluded[label] = struct{}{}
	}
	return p
}

// Normalize uppercases and trims the raw token, then expands it through the
// abbreviation table when it is exactly three characters long. Any other
// token is its own canonical label. Pure and total: there is no failure mode.
func (p *Policy) Normalize(rawSeverity string) string {
	token := strings.ToUpper(strings.TrimSpace(rawSeverity))
	if len(token) == 3 {
		if full, ok := p.abbrev[token]; ok {
			return full
		}
	}
	return token
}

// Score looks the canonical label up in the configured scale. A miss is not
// an error: it logs a diagnostic and returns DefaultScore.
func (p *Policy) Score(canonicalLabel string) int {
	if score, ok := p.scale[canonicalLabel]; ok {
		return score
	}
	p.log.Debug("Severity label not in configured scale, using default score",
		zap.String("label", canonicalLabel),
		zap.Int("default", DefaultScore))
	return DefaultScore
}

// IsExcluded reports whether the given severity label is configured to be
// dropped. The test runs against the raw scanner token, NOT the normalized
// label: exclusion and scoring intentionally see independently cased inputs,
// so the configured exclusion list must carry every spelling variant it is
// meant to catch.
func (p *Policy) IsExcluded(rawSeverity string) bool {
	_, ok := p.excluded[rawSeverity]
	return ok
}
