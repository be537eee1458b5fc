package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tierone/deckhand/pkg/changes"
	"github.com/tierone/deckhand/pkg/sampler"
	"github.com/tierone/deckhand/pkg/session"
	"github.com/tierone/deckhand/pkg/stats"
	"github.com/tierone/deckhand/pkg/watcher"
)

var (
	watchTag      string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [repository...]",
	Short: "Follow repositories and refresh them as they change",
	Long: `Watch repositories for changes on disk and refresh their state once
changes settle. A line is printed for every refresh, including when a
conflicted merge or rebase is completed or aborted.

Press Ctrl+C to stop; the conflict counters collected while watching are
printed on exit.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchTag, "tag", "t", "", "watch repositories with tag")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "override the debounce period")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	filter := session.Filter{}
	if len(args) > 0 {
		filter.Names = args
	} else if watchTag != "" {
		filter.Tags = []string{watchTag}
	} else {
		filter.All = true
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr := session.NewManager(cfg, sampler.New(), session.WithManagerLogger(logger))

	// Refreshes run on timer goroutines; serialize their output.
	var outMu sync.Mutex
	report := func(r session.Result) {
		outMu.Lock()
		defer outMu.Unlock()
		printRefresh(out, r)
	}

	initial, err := mgr.RefreshAll(ctx, filter)
	if err != nil {
		return err
	}
	if len(initial) == 0 {
		fmt.Fprintln(out, "No repositories to watch")
		return nil
	}

	debounce := cfg.Watch.Debounce
	if watchDebounce > 0 {
		debounce = watchDebounce
	}

	w, err := watcher.New(debounce, func(name string) {
		result, err := mgr.Refresh(ctx, name)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("refresh failed", "repository", name, "error", err)
			}
			return
		}
		report(result)
	}, logger)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	watching := 0
	for _, r := range initial {
		report(r)
		if r.Err != nil {
			continue
		}
		if err := w.Add(r.Repository, r.Path); err != nil {
			logger.Warn("cannot watch repository", "repository", r.Repository, "error", err)
			continue
		}
		watching++
	}
	if watching == 0 {
		return fmt.Errorf("no repository could be watched: %w", errFailures)
	}

	<-ctx.Done()
	_ = w.Close()

	outMu.Lock()
	defer outMu.Unlock()
	printStats(out, mgr.Stats())
	return nil
}

func printRefresh(out io.Writer, r session.Result) {
	ts := time.Now().Format("15:04:05")
	if r.Err != nil {
		fmt.Fprintf(out, "%s %s error: %v\n", ts, r.Repository, r.Err)
		return
	}

	conflict := "clean"
	switch r.State.Conflict.(type) {
	case *changes.MergeConflict:
		conflict = "merging"
	case *changes.RebaseConflict:
		conflict = "rebasing"
	}

	fmt.Fprintf(out, "%s %s v%d: %d files, %s", ts, r.Repository, r.Version, r.State.WorkingDirectory.Len(), conflict)
	if r.Signal != changes.SignalNone {
		fmt.Fprintf(out, ", %s", r.Signal)
	}
	fmt.Fprintln(out)
}

func printStats(out io.Writer, counters *stats.Store) {
	names := counters.Names()
	if len(names) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\nCOUNTER\tVALUE")
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", name, counters.Get(name))
	}
	_ = w.Flush()
}
