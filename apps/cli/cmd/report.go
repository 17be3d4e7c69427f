package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/config"
	"github.com/abdul-hamid-achik/specreport/packages/core/events"
	"github.com/abdul-hamid-achik/specreport/packages/core/replay"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
	"github.com/abdul-hamid-achik/specreport/packages/export/metrics"
	"github.com/abdul-hamid-achik/specreport/packages/output"
	"github.com/abdul-hamid-achik/specreport/packages/sink"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	formatFlag           string
	outputDirFlag        string
	filePrefixFlag       string
	consolidateAllFlag   bool
	consolidateFlag      bool
	dotNotationFlag      bool
	packageFlag          string
	stylesheetFlag       string
	suppressDisabledFlag bool
	reportNameFlag       string
	teamcityPrefixFlag   string
	configFlag           string
	metricsFlag          string
	metricsFileFlag      string
	watchFlag            bool
	noColorFlag          bool
	verbosityFlag        int
)

var reportCmd = &cobra.Command{
	Use:   "report <file|directory|pattern>...",
	Short: "Replay recorded runs and write reports",
	Long: `Replay one or more JSON-lines recordings of test lifecycle events and
write a report for every configured format.

Arguments may be files, directories (searched for *.jsonl and *.ndjson) or
doublestar patterns such as "build/**/*.jsonl". When several recordings are
given, file based reports of each go to a subdirectory named after it.

Exit codes:
  0  every run passed
  1  at least one spec failed
  2  a recording could not be replayed
  3  invalid configuration
  4  a report could not be written`,
	Args: cobra.MinimumNArgs(1),
	RunE: reportCommand,
}

func init() {
	f := reportCmd.Flags()
	f.StringVarP(&formatFlag, "format", "f", "", "Comma separated formats: "+strings.Join(output.Formats, ", ")+" (env: SPECREPORT_FORMATS)")
	f.StringVarP(&outputDirFlag, "output-dir", "o", "", "Directory for file based reports (env: SPECREPORT_OUTPUT_DIR)")
	f.StringVar(&filePrefixFlag, "file-prefix", "", "Prefix of generated XML file names")
	f.BoolVar(&consolidateAllFlag, "consolidate-all", true, "Write the whole run into one XML file")
	f.BoolVar(&consolidateFlag, "consolidate", true, "Write one XML file per top level suite instead of one per suite")
	f.BoolVar(&dotNotationFlag, "dot-notation", true, "Join nested suite names with '.' instead of ' '")
	f.StringVar(&packageFlag, "package", "", "Package attribute of JUnit suites")
	f.StringVar(&stylesheetFlag, "stylesheet", "", "XSL stylesheet referenced by XML reports")
	f.BoolVar(&suppressDisabledFlag, "suppress-disabled", false, "Omit the disabled count from XML summaries")
	f.StringVar(&reportNameFlag, "report-name", "", "Name of the NUnit report root")
	f.StringVar(&teamcityPrefixFlag, "teamcity-prefix", "", "Prefix added to TeamCity suite names")
	f.StringVarP(&configFlag, "config", "c", getEnvString("SPECREPORT_CONFIG", ""), "Config file (default: search the working directory)")
	f.StringVar(&metricsFlag, "metrics", "", "Comma separated metrics exporters: json, prometheus, datadog")
	f.StringVar(&metricsFileFlag, "metrics-file", "", "File metrics are written to (default: stdout)")
	f.BoolVarP(&watchFlag, "watch", "w", getEnvBool("SPECREPORT_WATCH", false), "Watch recordings and report again when they change")
	f.BoolVar(&noColorFlag, "no-color", getEnvBool("NO_COLOR", false), "Disable colored console output")
	f.IntVarP(&verbosityFlag, "verbosity", "v", getEnvInt("SPECREPORT_VERBOSITY", 2), "Console verbosity 0-3")
}

// reportConfig loads the config file and environment and applies the flags
// the user set explicitly
func reportConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	override := &config.Config{}
	if flags.Changed("format") {
		override.Formats = splitList(formatFlag)
	}
	if flags.Changed("output-dir") {
		override.OutputDir = outputDirFlag
	}
	if flags.Changed("file-prefix") {
		override.FilePrefix = filePrefixFlag
	}
	if flags.Changed("consolidate-all") {
		override.ConsolidateAll = config.BoolPtr(consolidateAllFlag)
	}
	if flags.Changed("consolidate") {
		override.Consolidate = config.BoolPtr(consolidateFlag)
	}
	if flags.Changed("dot-notation") {
		override.UseDotNotation = config.BoolPtr(dotNotationFlag)
	}
	if flags.Changed("package") {
		override.Package = packageFlag
	}
	if flags.Changed("stylesheet") {
		override.StylesheetPath = stylesheetFlag
	}
	if flags.Changed("suppress-disabled") {
		override.SuppressDisabled = config.BoolPtr(suppressDisabledFlag)
	}
	if flags.Changed("report-name") {
		override.ReportName = reportNameFlag
	}
	if flags.Changed("teamcity-prefix") {
		override.TeamCityPrefix = teamcityPrefixFlag
	}
	if flags.Changed("metrics") {
		override.Metrics = splitList(metricsFlag)
	}
	if flags.Changed("metrics-file") {
		override.MetricsFile = metricsFileFlag
	}
	if flags.Changed("no-color") || noColorFlag {
		override.NoColor = config.BoolPtr(noColorFlag)
	}
	if flags.Changed("verbosity") || os.Getenv("SPECREPORT_VERBOSITY") != "" {
		override.Verbosity = config.IntPtr(verbosityFlag)
	}
	cfg = cfg.Merge(override)

	if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
		if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			logrus.SetLevel(level)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func reportCommand(cmd *cobra.Command, args []string) error {
	cfg, err := reportConfig(cmd)
	if err != nil {
		return &ExitError{Code: ExitConfigError, Err: err}
	}

	files, err := collectFiles(args)
	if err != nil {
		return &ExitError{Code: ExitUsageError, Err: err}
	}
	if len(files) == 0 {
		return &ExitError{Code: ExitUsageError, Err: errors.New("no recordings found")}
	}

	out := cmd.OutOrStdout()
	multi := len(files) > 1
	result, err := runReport(out, cfg, files, multi)
	if !watchFlag {
		return result.exitError(err)
	}
	if err != nil {
		logrus.WithError(err).Error("report failed")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watchRecordings(ctx, out, args, files, func(changed []string) {
		if _, err := runReport(out, cfg, changed, multi); err != nil {
			logrus.WithError(err).Error("report failed")
		}
	})
}

// reportResult sums up the runs replayed by runReport
type reportResult struct {
	Runs   int
	Failed int
}

func (r reportResult) exitError(err error) error {
	if err != nil {
		return err
	}
	if r.Failed > 0 {
		return &ExitError{Code: ExitTestFailure, Err: fmt.Errorf("%d %s failed", r.Failed, plural(r.Failed, "spec", "specs"))}
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// runReport replays every file through a fresh set of reporters. A failing
// recording does not stop the remaining ones. multi puts the file reports of
// each recording into its own directory and stays fixed for watch reruns.
func runReport(out io.Writer, cfg *config.Config, files []string, multi bool) (reportResult, error) {
	var result reportResult
	var errs []error

	for _, file := range files {
		log := logrus.WithField("recording", file)
		target := output.Target{
			Stdout: out,
			Files:  sink.NewDir(reportDir(cfg.OutputDir, file, multi)),
			Log:    log,
		}

		reporters, err := output.NewAll(cfg, target)
		if err != nil {
			return result, &ExitError{Code: ExitConfigError, Err: err}
		}

		collector := tree.NewCollector()
		listeners := append(events.Multi{collector}, reporters...)

		var mc *metrics.Collector
		if len(cfg.Metrics) > 0 {
			exporters, err := newExporters(out, cfg)
			if err != nil {
				return result, &ExitError{Code: ExitConfigError, Err: err}
			}
			mc = metrics.NewCollector(exporters...)
			listeners = append(listeners, mc)
		}

		stats, err := replay.ReplayFile(file, listeners)
		if mc != nil {
			if cerr := mc.Close(); cerr != nil {
				log.WithError(cerr).Warn("failed to close metrics exporters")
			}
		}
		log.WithField("events", stats.Events).Debug("replayed recording")

		if run := collector.Result(); run != nil {
			result.Runs++
			result.Failed += run.Totals.Failed
		}
		if err != nil {
			errs = append(errs, classify(err))
		}
	}

	return result, errors.Join(errs...)
}

// classify maps a replay failure onto an exit code. Errors raised while
// decoding or by the tree builder are replay errors, anything else came from
// writing a report.
func classify(err error) error {
	var protoErr *tree.ProtocolError
	if errors.As(err, &protoErr) || isDecodeError(err) || errors.Is(err, os.ErrNotExist) {
		return &ExitError{Code: ExitReplayError, Err: err}
	}
	return &ExitError{Code: ExitReportError, Err: err}
}

func isDecodeError(err error) bool {
	return errors.Is(err, replay.ErrInvalidJSON) ||
		errors.Is(err, replay.ErrUnknownEvent) ||
		errors.Is(err, replay.ErrMissingField) ||
		errors.Is(err, events.ErrUnknownStatus)
}

// reportDir is the directory file based reports of one recording go to
func reportDir(base, file string, multi bool) string {
	if !multi {
		return base
	}
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return filepath.Join(base, stem)
}

func newExporters(out io.Writer, cfg *config.Config) ([]metrics.Exporter, error) {
	var exporters []metrics.Exporter
	for _, name := range cfg.Metrics {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "json":
			opts := []metrics.JSONOption{metrics.WithJSONPretty(true)}
			if cfg.MetricsFile != "" {
				opts = append(opts, metrics.WithJSONFile(cfg.MetricsFile))
			} else {
				opts = append(opts, metrics.WithJSONWriter(out))
			}
			exporters = append(exporters, metrics.NewJSONExporter(opts...))
		case "prometheus":
			var opts []metrics.PrometheusOption
			if cfg.MetricsFile != "" {
				opts = append(opts, metrics.WithPrometheusTextfile(cfg.MetricsFile))
			} else {
				opts = append(opts, metrics.WithPrometheusWriter(out))
			}
			exporters = append(exporters, metrics.NewPrometheusExporter(opts...))
		case "datadog":
			exporters = append(exporters, metrics.NewDataDogExporter(
				metrics.WithDataDogSite(cfg.DatadogSite),
				metrics.WithDataDogTags(cfg.DatadogTags),
			))
		default:
			return nil, fmt.Errorf("unknown metrics format %q", name)
		}
	}
	return exporters, nil
}

// watchRecordings calls rerun with the recordings that changed until ctx is done
func watchRecordings(ctx context.Context, out io.Writer, args, files []string, rerun func(changed []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range watchDirs(args, files) {
		if err := watcher.Add(dir); err != nil {
			logrus.WithError(err).WithField("dir", dir).Warn("failed to watch directory")
		}
	}

	fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	pending := make(map[string]bool)
	fire := make(chan struct{}, 1)
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isRecordingFile(event.Name) && !contains(files, filepath.Clean(event.Name)) {
				continue
			}
			pending[filepath.Clean(event.Name)] = true

			// Debounce: reset timer on each event
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			clear(pending)
			sort.Strings(changed)
			fmt.Fprintf(out, "\nRecording changed: %s\n\n", strings.Join(changed, ", "))
			rerun(changed)
			fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logrus.WithError(err).Warn("watcher error")
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
