package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/ecohtml/internal/config"
	"github.com/conneroisu/ecohtml/internal/inputfs"
	"github.com/conneroisu/ecohtml/internal/report"
	"github.com/conneroisu/ecohtml/internal/sensor"
)

type analyzeOptions struct {
	*globalOptions
	analysisFlags
	failOnIssues bool
}

func newAnalyzeCmd(global *globalOptions) *cobra.Command {
	opts := &analyzeOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:     "analyze [paths...]",
		Aliases: []string{"a"},
		Short:   "Analyze pages and report eco-design issues",
		Long: `Analyze HTML, JSP, PHP and Vue files under the given paths (or the
configured analysis.paths) and print every issue found.

Files are selected by language (html, jsp) or by one of the configured
suffixes. Files matching a test pattern are skipped.

Examples:
  ecohtml analyze                       # Analyze the configured paths
  ecohtml analyze site/ index.html      # Analyze specific paths
  ecohtml analyze --format json         # Output the report as JSON
  ecohtml analyze --workers 8           # Analyze 8 files at once
  ecohtml analyze --disable GCI8000     # Skip a rule
  ecohtml analyze --fail-on-issues      # Exit non-zero when issues are found`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	addAnalysisFlags(cmd.Flags(), &opts.analysisFlags)
	cmd.Flags().BoolVar(&opts.failOnIssues, "fail-on-issues", false, "Exit with an error when an issue is found")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *analyzeOptions) error {
	s, err := opts.load(cmd, analysisBindings)
	if err != nil {
		return err
	}
	s.cfg.TargetFiles = args

	sn, err := newSensor(s)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := report.NewCollector()
	if err := execute(ctx, s.cfg, sn, fileSystem(s.cfg), collector); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	r := report.Build(collector, s.catalog)
	if err := render(cmd.OutOrStdout(), s.cfg, r); err != nil {
		return err
	}

	if opts.failOnIssues && r.Summary.Issues > 0 {
		return fmt.Errorf("%d issues found", r.Summary.Issues)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newSensor(s *session) (*sensor.Sensor, error) {
	return sensor.New(s.catalog,
		sensor.WithLogger(s.logger),
		sensor.WithSuffixes(s.cfg.Analysis.Suffixes...),
		sensor.WithCharset(s.cfg.Analysis.Charset),
		sensor.WithRules(s.cfg.Rules.Enabled, s.cfg.Rules.Disabled),
	)
}

// fileSystem returns the files named on the command line, or the
// configured paths when there are none.
func fileSystem(cfg *config.Config) inputfs.Dir {
	roots := cfg.Analysis.Paths
	if len(cfg.TargetFiles) > 0 {
		roots = cfg.TargetFiles
	}
	return inputfs.Dir{
		Roots:        roots,
		Exclude:      cfg.Analysis.ExcludePatterns,
		TestPatterns: cfg.Analysis.TestPatterns,
	}
}

func execute(ctx context.Context, cfg *config.Config, sn *sensor.Sensor, fs inputfs.FileSystem, reporter sensor.Reporter) error {
	if cfg.Analysis.Workers > 1 {
		return sn.ExecuteParallel(ctx, fs, reporter, cfg.Analysis.Workers)
	}
	return sn.Execute(ctx, fs, reporter)
}

func render(w io.Writer, cfg *config.Config, r *report.Report) error {
	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	return report.Render(w, r, report.Options{
		Format:   format,
		Color:    useColor(cfg.Output.Color, w),
		Measures: cfg.Output.Measures,
	})
}
