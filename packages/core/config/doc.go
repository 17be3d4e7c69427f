// Package config handles configuration loading and management for specreport.
//
// It provides functionality for:
//   - Loading configuration from specreport.yaml, .specreport.yaml, specreport.json or .specreportrc
//   - Default configuration values
//   - SPECREPORT_* environment overrides
package config
