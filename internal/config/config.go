// File: internal/config/config.go
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration. It is loaded once at
// startup, validated, and then only ever read; request handling never
// mutates it, so one instance is safely shared across concurrent
// invocations.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Severity SeverityConfig `mapstructure:"severity" yaml:"severity"`
	Catalog  CatalogConfig  `mapstructure:"catalog" yaml:"catalog"`
	AWS      AWSConfig      `mapstructure:"aws" yaml:"aws"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// SeverityConfig is the severity normalization policy: the ordinal scale,
// the abbreviation expansions, and the labels to drop outright.
//
// Scale maps a canonical (uppercase, full word) label to its ordinal score.
// Abbreviations maps an exactly-three-character token to its canonical
// expansion. Excluded lists severity labels, as the scanners spell them,
// whose findings are never forwarded. Exclusion is matched against the raw
// scanner token, not the canonical label, so the list must contain every
// spelling variant it is meant to catch.
type SeverityConfig struct {
	Scale         map[string]int    `mapstructure:"scale" yaml:"scale"`
	Abbreviations map[string]string `mapstructure:"abbreviations" yaml:"abbreviations"`
	Excluded      []string          `mapstructure:"excluded" yaml:"excluded"`
}

// CatalogConfig maps report types to the human-facing strings stamped onto
// outbound findings. Missing entries are not errors; lookups degrade to
// synthesized values (see internal/catalog).
type CatalogConfig struct {
	FindingTypes     map[string]string `mapstructure:"finding_types" yaml:"finding_types"`
	FindingTitles    map[string]string `mapstructure:"finding_titles" yaml:"finding_titles"`
	RemediationURLs  map[string]string `mapstructure:"remediation_urls" yaml:"remediation_urls"`
	DefaultReportURL string            `mapstructure:"default_report_url" yaml:"default_report_url"`
}

// AWSConfig holds the deployment identity and artifact store settings.
type AWSConfig struct {
	Region         string `mapstructure:"region" yaml:"region"`
	Partition      string `mapstructure:"partition" yaml:"partition"`
	ArtifactBucket string `mapstructure:"artifact_bucket" yaml:"artifact_bucket"`
}

// DatabaseConfig holds the connection details for the optional Postgres
// findings sink. Empty URL disables it.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// SetDefaults initializes default values for all configuration parameters.
// The severity scale and abbreviation table default to the values the
// pipeline has always shipped with; deployments override them per scanner
// vocabulary.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "scanrelay")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Severity scale --
	v.SetDefault("severity.scale", map[string]int{
		"BLOCKER":       50,
		"CRITICAL":      40,
		"HIGH":          30,
		"MAJOR":         25,
		"MEDIUM":        20,
		"LOW":           5,
		"INFORMATIONAL": 2,
		"NEGLIGIBLE":    1,
		"UNKNOWN":       1,
	})
	v.SetDefault("severity.abbreviations", map[string]string{
		"CRI": "CRITICAL",
		"BLO": "BLOCKER",
		"HIG": "HIGH",
		"MAJ": "MAJOR",
		"MED": "MEDIUM",
		"LOW": "LOW",
		"INF": "INFORMATIONAL",
		"NEG": "NEGLIGIBLE",
		"UNK": "UNKNOWN",
	})
	v.SetDefault("severity.excluded", []string{})

	// -- Catalogs --
	v.SetDefault("catalog.finding_types", map[string]string{
		"ECR":       "Container Image Vulnerability",
		"SNYK":      "Third-Party Dependency Vulnerability",
		"OWASP-Zap": "Dynamic Application Security Finding",
	})
	v.SetDefault("catalog.finding_titles", map[string]string{
		"ECR":       "ECR Image Scan",
		"SNYK":      "Snyk Open Source Scan",
		"OWASP-Zap": "OWASP ZAP Dynamic Scan",
	})
	v.SetDefault("catalog.remediation_urls", map[string]string{
		"cloudformation": "https://docs.aws.amazon.com/AmazonECR/latest/userguide/image-scanning.html",
		"snyk":           "https://docs.snyk.io/manage-risk/prioritize-issues-for-fixing",
		"owasp":          "https://www.zaproxy.org/docs/alerts/",
	})
	v.SetDefault("catalog.default_report_url", "https://console.aws.amazon.com/codesuite/codebuild/home")

	// -- AWS --
	v.SetDefault("aws.partition", "aws")
}

// NewConfigFromViper creates and validates a configuration instance from a
// viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
// Absence of a required field is a startup-time failure, never a per-report
// failure.
func (c *Config) Validate() error {
	if c.AWS.Region == "" {
		return fmt.Errorf("aws.region is a required configuration field")
	}
	if c.AWS.ArtifactBucket == "" {
		return fmt.Errorf("aws.artifact_bucket is a required configuration field")
	}
	if c.AWS.Partition == "" {
		c.AWS.Partition = "aws"
	}
	if len(c.Severity.Scale) == 0 {
		return fmt.Errorf("severity.scale must define at least one canonical label")
	}
	for abbr := range c.Severity.Abbreviations {
		if len(abbr) != 3 {
			return fmt.Errorf("severity.abbreviations key %q must be exactly three characters", abbr)
		}
	}
	if c.Catalog.DefaultReportURL == "" {
		return fmt.Errorf("catalog.default_report_url is a required configuration field")
	}
	return nil
}
