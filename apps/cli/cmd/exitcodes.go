package cmd

// Exit codes for the specreport CLI
const (
	// ExitSuccess indicates every replayed run passed
	ExitSuccess = 0

	// ExitTestFailure indicates a replayed run had failed specs
	ExitTestFailure = 1

	// ExitReplayError indicates a recording could not be read, decoded or replayed
	ExitReplayError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitReportError indicates a report could not be written
	ExitReportError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// ExitError carries the process exit code for a failed command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }
