package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var logLevelFlag string

var rootCmd = &cobra.Command{
	Use:   "specreport",
	Short: "Turn recorded test runs into CI reports.",
	Long: `specreport replays recorded test lifecycle events and writes them as
JUnit, NUnit or Sonar XML, TAP, TeamCity service messages, JSON, HTML or
plain terminal output.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", getEnvString("SPECREPORT_LOG_LEVEL", "warn"), "Log level: debug, info, warn, error (env: SPECREPORT_LOG_LEVEL)")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(strings.TrimSpace(logLevelFlag))
	if err != nil {
		return &ExitError{Code: ExitUsageError, Err: fmt.Errorf("invalid --log-level: %w", err)}
	}
	logrus.SetLevel(level)
	logrus.SetOutput(cmd.ErrOrStderr())
	return nil
}

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUsageError
}
