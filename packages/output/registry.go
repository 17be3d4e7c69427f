package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/specreport/packages/core/config"
	"github.com/abdul-hamid-achik/specreport/packages/core/events"
	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
	"github.com/abdul-hamid-achik/specreport/packages/sink"
	"github.com/sirupsen/logrus"
)

// ErrUnknownFormat is returned for a format name New does not know
var ErrUnknownFormat = errors.New("unknown format")

// Formats lists every format name New accepts
var Formats = []string{"junit", "nunit", "sonar", "tap", "teamcity", "console", "json", "html"}

// Target is where reporters built by New send their output. Streaming formats
// write to Stdout, file formats to Files.
type Target struct {
	Stdout      io.Writer
	Files       sink.Sink
	Log         *logrus.Entry
	TreeOptions []tree.Option
}

func (t Target) withDefaults(cfg *config.Config) Target {
	if t.Stdout == nil {
		t.Stdout = os.Stdout
	}
	if t.Files == nil {
		t.Files = sink.NewDir(cfg.OutputDir)
	}
	if t.Log == nil {
		t.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return t
}

// New builds the reporter for format from cfg
func New(format string, cfg *config.Config, target Target) (events.Listener, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	target = target.withDefaults(cfg)
	name := strings.ToLower(strings.TrimSpace(format))
	log := target.Log.WithField("reporter", name)

	switch name {
	case "junit":
		return NewJUnitReporter(xmlOptions(cfg, JUnit{}, target, log)...), nil
	case "nunit":
		return NewNUnitReporter(xmlOptions(cfg, NUnit{}, target, log)...), nil
	case "sonar":
		return NewSonarReporter(xmlOptions(cfg, Sonar{}, target, log)...), nil
	case "tap":
		return NewTAPReporter(
			TAPWithWriter(target.Stdout),
			TAPWithLogger(log),
			TAPWithTreeOptions(target.TreeOptions...),
		), nil
	case "teamcity":
		return NewTeamCityReporter(
			TeamCityWithWriter(target.Stdout),
			TeamCityWithLogger(log),
			TeamCityWithPrefix(cfg.TeamCityPrefix),
			func(r *TeamCityReporter) { r.treeOpts = append(r.treeOpts, target.TreeOptions...) },
		), nil
	case "console":
		return NewConsoleReporter(
			WithWriter(target.Stdout),
			WithVerbosity(cfg.GetVerbosity()),
			WithNoColor(cfg.GetNoColor()),
			ConsoleWithLogger(log),
			func(r *ConsoleReporter) { r.treeOpts = append(r.treeOpts, target.TreeOptions...) },
		), nil
	case "json":
		return NewJSONReporter(
			JSONWithSink(target.Files),
			JSONWithFilePrefix(cfg.FilePrefix),
			JSONWithLogger(log),
			func(r *JSONReporter) { r.treeOpts = append(r.treeOpts, target.TreeOptions...) },
		), nil
	case "html":
		return NewHTMLReporter(
			HTMLWithSink(target.Files),
			HTMLWithFilePrefix(cfg.FilePrefix),
			HTMLWithTitle(cfg.ReportName),
			HTMLWithLogger(log),
			func(r *HTMLReporter) { r.treeOpts = append(r.treeOpts, target.TreeOptions...) },
		), nil
	}
	return nil, fmt.Errorf("%w %q (expected one of %s)", ErrUnknownFormat, format, strings.Join(Formats, ", "))
}

// NewAll builds a reporter for every format cfg names and fans events out to them
func NewAll(cfg *config.Config, target Target) (events.Multi, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	var (
		listeners events.Multi
		errs      []error
	)
	for _, f := range cfg.Formats {
		l, err := New(f, cfg, target)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		listeners = append(listeners, l)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return listeners, nil
}

func xmlOptions(cfg *config.Config, d Dialect, target Target, log *logrus.Entry) []XMLOption {
	opts := []XMLOption{
		WithSink(target.Files),
		WithConsolidateAll(cfg.GetConsolidateAll()),
		WithConsolidate(cfg.GetConsolidate()),
		WithDotNotation(cfg.GetUseDotNotation()),
		WithPackage(cfg.Package),
		WithStylesheetPath(cfg.StylesheetPath),
		WithSuppressDisabled(cfg.GetSuppressDisabled()),
		WithCaptureStdout(cfg.GetCaptureStdout()),
		WithReportName(cfg.ReportName),
		WithLogger(log),
		WithTreeOptions(target.TreeOptions...),
	}
	if cfg.FilePrefix != "" {
		opts = append(opts, WithFilePrefix(xmlFilePrefix(cfg, d)))
	}
	return opts
}

// xmlFilePrefix keeps a user prefix shared by several XML formats apart per
// dialect: "results" becomes "results-junit" and "report-" becomes
// "report-junit-" (or "report-junit" for single file output).
func xmlFilePrefix(cfg *config.Config, d Dialect) string {
	prefix := cfg.FilePrefix
	if countXMLFormats(cfg.Formats) < 2 {
		return prefix
	}
	base := strings.TrimRight(prefix, "-_.")
	sep := prefix[len(base):]
	if sep == "" {
		return prefix + "-" + d.Name()
	}
	if cfg.GetConsolidateAll() || d.SingleFile() {
		return base + sep + d.Name()
	}
	return base + sep + d.Name() + sep
}

func countXMLFormats(formats []string) int {
	seen := make(map[string]bool)
	for _, f := range formats {
		switch name := strings.ToLower(strings.TrimSpace(f)); name {
		case "junit", "nunit", "sonar":
			seen[name] = true
		}
	}
	return len(seen)
}
