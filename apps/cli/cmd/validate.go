package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/specreport/packages/core/replay"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory|pattern>...",
	Short: "Validate recordings without writing reports",
	Long: `Validate recordings against the event schema and check that their
lifecycle events arrive in a valid order. No report is written.

Examples:
  specreport validate run.jsonl
  specreport validate ./recordings/
  specreport validate "build/**/*.jsonl"`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return &ExitError{Code: ExitUsageError, Err: err}
	}

	if len(files) == 0 {
		return &ExitError{Code: ExitUsageError, Err: errors.New("no recordings found")}
	}

	hasErrors := false
	for _, file := range files {
		if err := validateFile(file); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		}
	}

	if hasErrors {
		return &ExitError{Code: ExitReplayError, Err: errors.New("validation failed")}
	}

	return nil
}

// validateFile checks every line against the schema and, when they all
// conform, replays the file to check the event order
func validateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	problems, err := replay.Validate(f)
	f.Close()
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		return joinProblems(problems)
	}

	collector := tree.NewCollector()
	if _, err := replay.ReplayFile(path, collector); err != nil {
		return err
	}
	if collector.Builder().State() != tree.Finished {
		return errors.New("recording ends before runFinished")
	}
	return nil
}

func joinProblems(problems []*replay.LineError) error {
	errs := make([]error, len(problems))
	for i, p := range problems {
		errs[i] = p
	}
	return errors.Join(errs...)
}
