package config

// DefaultVerbosity is the console verbosity used when none is configured
const DefaultVerbosity = 2

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Formats:          []string{"junit"},
		OutputDir:        "",
		ConsolidateAll:   BoolPtr(true),
		Consolidate:      BoolPtr(true),
		UseDotNotation:   BoolPtr(true),
		SuppressDisabled: BoolPtr(false),
		CaptureStdout:    BoolPtr(false),
		Verbosity:        IntPtr(DefaultVerbosity),
		NoColor:          BoolPtr(false),
		LogLevel:         "info",
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	d := DefaultConfig()
	return len(c.Formats) == 1 && c.Formats[0] == d.Formats[0] &&
		c.OutputDir == d.OutputDir &&
		c.FilePrefix == "" &&
		c.GetConsolidateAll() == d.GetConsolidateAll() &&
		c.GetConsolidate() == d.GetConsolidate() &&
		c.GetUseDotNotation() == d.GetUseDotNotation() &&
		c.Package == nil &&
		c.StylesheetPath == nil &&
		c.GetSuppressDisabled() == d.GetSuppressDisabled() &&
		c.GetCaptureStdout() == d.GetCaptureStdout() &&
		c.ReportName == "" &&
		c.TeamCityPrefix == "" &&
		c.GetVerbosity() == d.GetVerbosity() &&
		c.GetNoColor() == d.GetNoColor() &&
		len(c.Metrics) == 0 &&
		c.MetricsFile == "" &&
		c.LogLevel == d.LogLevel
}
