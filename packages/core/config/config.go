package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the specreport configuration
type Config struct {
	Formats          []string `json:"formats,omitempty" yaml:"formats,omitempty"`
	OutputDir        string   `json:"outputDir,omitempty" yaml:"outputDir,omitempty"`
	FilePrefix       string   `json:"filePrefix,omitempty" yaml:"filePrefix,omitempty"`
	ConsolidateAll   *bool    `json:"consolidateAll,omitempty" yaml:"consolidateAll,omitempty"`
	Consolidate      *bool    `json:"consolidate,omitempty" yaml:"consolidate,omitempty"`
	UseDotNotation   *bool    `json:"useDotNotation,omitempty" yaml:"useDotNotation,omitempty"`
	Package          any      `json:"package,omitempty" yaml:"package,omitempty"`               // only strings are honored
	StylesheetPath   any      `json:"stylesheetPath,omitempty" yaml:"stylesheetPath,omitempty"` // only non-empty strings are honored
	SuppressDisabled *bool    `json:"suppressDisabled,omitempty" yaml:"suppressDisabled,omitempty"`
	CaptureStdout    *bool    `json:"captureStdout,omitempty" yaml:"captureStdout,omitempty"`
	ReportName       string   `json:"reportName,omitempty" yaml:"reportName,omitempty"`
	TeamCityPrefix   string   `json:"teamcityPrefix,omitempty" yaml:"teamcityPrefix,omitempty"`
	Verbosity        *int     `json:"verbosity,omitempty" yaml:"verbosity,omitempty"`
	NoColor          *bool    `json:"noColor,omitempty" yaml:"noColor,omitempty"`
	Metrics          []string `json:"metrics,omitempty" yaml:"metrics,omitempty"` // json, prometheus, datadog
	MetricsFile      string   `json:"metricsFile,omitempty" yaml:"metricsFile,omitempty"`
	DatadogSite      string   `json:"datadogSite,omitempty" yaml:"datadogSite,omitempty"`
	DatadogTags      []string `json:"datadogTags,omitempty" yaml:"datadogTags,omitempty"`
	LogLevel         string   `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// IntPtr returns a pointer to i
func IntPtr(i int) *int {
	return &i
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetConsolidateAll returns the consolidate-all setting, defaulting to true
func (c *Config) GetConsolidateAll() bool {
	return getBool(c.ConsolidateAll, true)
}

// GetConsolidate returns the consolidate setting, defaulting to true
func (c *Config) GetConsolidate() bool {
	return getBool(c.Consolidate, true)
}

// GetUseDotNotation returns the dot notation setting, defaulting to true
func (c *Config) GetUseDotNotation() bool {
	return getBool(c.UseDotNotation, true)
}

// GetSuppressDisabled returns the suppress disabled setting, defaulting to false
func (c *Config) GetSuppressDisabled() bool {
	return getBool(c.SuppressDisabled, false)
}

// GetCaptureStdout returns the capture stdout setting, defaulting to false
func (c *Config) GetCaptureStdout() bool {
	return getBool(c.CaptureStdout, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetVerbosity returns the console verbosity, defaulting to 2
func (c *Config) GetVerbosity() int {
	if c.Verbosity == nil {
		return DefaultVerbosity
	}
	return *c.Verbosity
}

// GetPackage returns the package name, empty when unset or not a string
func (c *Config) GetPackage() string {
	s, _ := c.Package.(string)
	return s
}

// GetStylesheetPath returns the stylesheet path, empty when unset or not a string
func (c *Config) GetStylesheetPath() string {
	s, _ := c.StylesheetPath.(string)
	return s
}

// Validate reports settings no reporter can honor
func (c *Config) Validate() error {
	var errs []error
	if v := c.GetVerbosity(); v < 0 || v > 3 {
		errs = append(errs, fmt.Errorf("verbosity must be between 0 and 3, got %d", v))
	}
	for _, m := range c.Metrics {
		switch strings.ToLower(m) {
		case "json", "prometheus", "datadog":
		default:
			errs = append(errs, fmt.Errorf("unknown metrics format %q", m))
		}
	}
	if len(c.Formats) == 0 {
		errs = append(errs, errors.New("at least one format is required"))
	}
	return errors.Join(errs...)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	"specreport.yaml",
	".specreport.yaml",
	"specreport.json",
	".specreportrc",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file. JSON files are
// decoded as JSON, everything else as YAML.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	config := DefaultConfig()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if len(other.Formats) > 0 {
		result.Formats = other.Formats
	}
	if other.OutputDir != "" {
		result.OutputDir = other.OutputDir
	}
	if other.FilePrefix != "" {
		result.FilePrefix = other.FilePrefix
	}
	if other.Package != nil {
		result.Package = other.Package
	}
	if other.StylesheetPath != nil {
		result.StylesheetPath = other.StylesheetPath
	}
	if other.ReportName != "" {
		result.ReportName = other.ReportName
	}
	if other.TeamCityPrefix != "" {
		result.TeamCityPrefix = other.TeamCityPrefix
	}
	if len(other.Metrics) > 0 {
		result.Metrics = other.Metrics
	}
	if other.MetricsFile != "" {
		result.MetricsFile = other.MetricsFile
	}
	if other.DatadogSite != "" {
		result.DatadogSite = other.DatadogSite
	}
	if len(other.DatadogTags) > 0 {
		result.DatadogTags = other.DatadogTags
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}

	// Pointer settings - only override if explicitly set in other config
	if other.ConsolidateAll != nil {
		result.ConsolidateAll = other.ConsolidateAll
	}
	if other.Consolidate != nil {
		result.Consolidate = other.Consolidate
	}
	if other.UseDotNotation != nil {
		result.UseDotNotation = other.UseDotNotation
	}
	if other.SuppressDisabled != nil {
		result.SuppressDisabled = other.SuppressDisabled
	}
	if other.CaptureStdout != nil {
		result.CaptureStdout = other.CaptureStdout
	}
	if other.Verbosity != nil {
		result.Verbosity = other.Verbosity
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	return &result
}

// SaveConfig saves the configuration to a file, as JSON when the name ends in
// .json and as YAML otherwise
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
