package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by FromEnv
const EnvPrefix = "SPECREPORT"

// Env is the SPECREPORT_* environment overlay. Unset variables leave the
// corresponding setting untouched.
type Env struct {
	Formats          []string `envconfig:"FORMATS"`
	OutputDir        string   `envconfig:"OUTPUT_DIR"`
	FilePrefix       string   `envconfig:"FILE_PREFIX"`
	ConsolidateAll   *bool    `envconfig:"CONSOLIDATE_ALL"`
	Consolidate      *bool    `envconfig:"CONSOLIDATE"`
	UseDotNotation   *bool    `envconfig:"DOT_NOTATION"`
	Package          *string  `envconfig:"PACKAGE"`
	StylesheetPath   *string  `envconfig:"STYLESHEET"`
	SuppressDisabled *bool    `envconfig:"SUPPRESS_DISABLED"`
	CaptureStdout    *bool    `envconfig:"CAPTURE_STDOUT"`
	ReportName       string   `envconfig:"REPORT_NAME"`
	TeamCityPrefix   string   `envconfig:"TEAMCITY_PREFIX"`
	Verbosity        *int     `envconfig:"VERBOSITY"`
	NoColor          *bool    `envconfig:"NO_COLOR"`
	Metrics          []string `envconfig:"METRICS"`
	MetricsFile      string   `envconfig:"METRICS_FILE"`
	DatadogSite      string   `envconfig:"DATADOG_SITE"`
	DatadogTags      []string `envconfig:"DATADOG_TAGS"`
	LogLevel         string   `envconfig:"LOG_LEVEL"`
}

// FromEnv reads the environment overlay
func FromEnv() (*Config, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to read %s_* environment: %w", EnvPrefix, err)
	}
	return env.Config(), nil
}

// Config converts the overlay into a Config suitable for Merge
func (e Env) Config() *Config {
	c := &Config{
		Formats:          e.Formats,
		OutputDir:        e.OutputDir,
		FilePrefix:       e.FilePrefix,
		ConsolidateAll:   e.ConsolidateAll,
		Consolidate:      e.Consolidate,
		UseDotNotation:   e.UseDotNotation,
		SuppressDisabled: e.SuppressDisabled,
		CaptureStdout:    e.CaptureStdout,
		ReportName:       e.ReportName,
		TeamCityPrefix:   e.TeamCityPrefix,
		Verbosity:        e.Verbosity,
		NoColor:          e.NoColor,
		Metrics:          e.Metrics,
		MetricsFile:      e.MetricsFile,
		DatadogSite:      e.DatadogSite,
		DatadogTags:      e.DatadogTags,
		LogLevel:         e.LogLevel,
	}
	if e.Package != nil {
		c.Package = *e.Package
	}
	if e.StylesheetPath != nil {
		c.StylesheetPath = *e.StylesheetPath
	}
	return c
}

// Load resolves the effective configuration: defaults, then the config file,
// then the environment
func Load(path string) (*Config, error) {
	fileCfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	envCfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	return fileCfg.Merge(envCfg), nil
}
