package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/ecohtml/internal/inputfs"
	"github.com/conneroisu/ecohtml/internal/report"
	"github.com/conneroisu/ecohtml/internal/sensor"
	"github.com/conneroisu/ecohtml/internal/watcher"
)

type watchOptions struct {
	*globalOptions
	analysisFlags
	debounce time.Duration
}

func newWatchCmd(global *globalOptions) *cobra.Command {
	opts := &watchOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:     "watch [paths...]",
		Aliases: []string{"w"},
		Short:   "Re-analyze pages as they change",
		Long: `Analyze the given paths once, then watch them and re-analyze every
page that is created or modified. Changes are batched over the debounce
delay so saving several files at once triggers a single run.

Examples:
  ecohtml watch                     # Watch the configured paths
  ecohtml watch site/ --debounce 1s # Wait one second for more changes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, opts)
		},
	}

	addAnalysisFlags(cmd.Flags(), &opts.analysisFlags)
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 300*time.Millisecond, "Delay to batch changes over")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string, opts *watchOptions) error {
	bindings := map[string]string{"debounce": "watch.debounce"}
	for flag, key := range analysisBindings {
		bindings[flag] = key
	}

	s, err := opts.load(cmd, bindings)
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

	out := cmd.OutOrStdout()
	dir := fileSystem(s.cfg)
	if err := analyzeAndRender(ctx, s, sn, dir, out); err != nil {
		return err
	}

	fw, err := watcher.NewFileWatcher(s.cfg.Watch.Debounce, s.logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	fw.SkipDirs(s.cfg.Analysis.ExcludePatterns...)
	fw.AddFilter(watcher.ExcludeFilter(s.cfg.Analysis.ExcludePatterns...))
	fw.AddFilter(watcher.NoTestFilter(s.cfg.Analysis.TestPatterns...))
	fw.AddFilter(watcher.InputFilter(sn.Predicate()))

	for _, root := range dir.Roots {
		if err := fw.AddRecursive(root); err != nil {
			return err
		}
	}

	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		changed := changedFiles(events)
		if len(changed) == 0 {
			return nil
		}
		s.logger.Info(ctx, "Re-analyzing changed files", "count", len(changed))
		fmt.Fprintf(out, "\n%d file(s) changed at %s\n", len(changed), time.Now().Format("15:04:05"))

		return analyzeAndRender(ctx, s, sn, inputfs.Dir{
			Roots:        changed,
			TestPatterns: s.cfg.Analysis.TestPatterns,
		}, out)
	})

	if err := fw.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Watching for changes, press Ctrl+C to stop")
	<-ctx.Done()

	return nil
}

// changedFiles returns the paths of events that still name a regular file.
func changedFiles(events []watcher.ChangeEvent) []string {
	var paths []string
	for _, event := range events {
		if event.Type == watcher.EventTypeDeleted {
			continue
		}
		info, err := os.Stat(event.Path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, event.Path)
	}
	return paths
}

func analyzeAndRender(ctx context.Context, s *session, sn *sensor.Sensor, fs inputfs.FileSystem, out io.Writer) error {
	collector := report.NewCollector()
	if err := execute(ctx, s.cfg, sn, fs, collector); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return render(out, s.cfg, report.Build(collector, s.catalog))
}
