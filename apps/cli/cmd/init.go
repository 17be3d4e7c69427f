package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/specreport/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a specreport configuration",
	Long: `Initialize specreport in the current directory.

This creates:
  - specreport.yaml   - Configuration file with the default options
  - example.jsonl     - Example recording to try the reporters on

Examples:
  specreport init
  specreport init --force
  specreport report example.jsonl --format console,junit`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleRecording = `{"event":"runStarted","totalSpecsDefined":4,"time":"2024-01-02T03:04:05Z"}
{"event":"suiteStarted","id":"suite1","description":"Calculator","time":"2024-01-02T03:04:05.010Z"}
{"event":"specStarted","id":"spec1","description":"adds two numbers","time":"2024-01-02T03:04:05.020Z"}
{"event":"specDone","id":"spec1","description":"adds two numbers","status":"passed","time":"2024-01-02T03:04:05.032Z"}
{"event":"suiteStarted","id":"suite2","description":"division","time":"2024-01-02T03:04:05.040Z"}
{"event":"specStarted","id":"spec2","description":"divides evenly","time":"2024-01-02T03:04:05.050Z"}
{"event":"specDone","id":"spec2","description":"divides evenly","status":"passed","time":"2024-01-02T03:04:05.061Z"}
{"event":"specStarted","id":"spec3","description":"rejects division by zero","time":"2024-01-02T03:04:05.070Z"}
{"event":"specDone","id":"spec3","description":"rejects division by zero","status":"failed","failedExpectations":[{"message":"Expected function to throw an error.","stack":"Error: Expected function to throw an error.\n    at calculator.spec.js:21:7","matcherName":"toThrow"}],"time":"2024-01-02T03:04:05.094Z"}
{"event":"specStarted","id":"spec4","description":"rounds results","time":"2024-01-02T03:04:05.100Z"}
{"event":"specDone","id":"spec4","description":"rounds results","status":"pending","pendingReason":"Not implemented yet","time":"2024-01-02T03:04:05.101Z"}
{"event":"suiteDone","id":"suite2","description":"division","time":"2024-01-02T03:04:05.110Z"}
{"event":"suiteDone","id":"suite1","description":"Calculator","time":"2024-01-02T03:04:05.120Z"}
{"event":"runFinished","totalSpecsDefined":4,"time":"2024-01-02T03:04:05.130Z"}
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	exampleFile := filepath.Join(cwd, "example.jsonl")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return &ExitError{Code: ExitUsageError, Err: fmt.Errorf("file already exists: %s (use --force to overwrite)", f)}
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Formats = []string{"console", "junit"}
	cfg.OutputDir = "reports"
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleRecording), 0644); err != nil {
		return fmt.Errorf("failed to create example recording: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nNext: specreport report %s\n", filepath.Base(exampleFile))
	return nil
}
