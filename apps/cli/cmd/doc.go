// Package cmd implements the specreport CLI commands using Cobra.
//
// Available commands:
//   - report: Replay recordings and write reports in one or more formats
//   - validate: Check recordings against the event schema and protocol
//   - init: Create a config file and an example recording
//   - version: Show specreport version information
//
// Flags take precedence over SPECREPORT_* environment variables, which take
// precedence over the config file. Watch mode reports again whenever a
// recording changes.
package cmd
