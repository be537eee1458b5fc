package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tierone/deckhand/pkg/changes"
	"github.com/tierone/deckhand/pkg/session"
	"github.com/tierone/deckhand/pkg/snapshot"
	"github.com/tierone/deckhand/pkg/stats"
	"github.com/tierone/deckhand/pkg/ui"
)

var (
	reconcilePrev         string
	reconcileStatus       string
	reconcileWrite        bool
	reconcileJSON         bool
	reconcileClearPartial bool
	reconcileSelect       []string
	reconcileResolve      []string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile --status <file> [--prev <file>]",
	Short: "Replay a status snapshot against a previous state",
	Long: `Reconcile a status snapshot with the state recorded in a previous
snapshot, as a refresh would, and print the new state together with the
signal raised when a conflicted merge or rebase ended.

The previous snapshot may be missing, in which case the repository is
treated as never refreshed. --select and --resolve are applied to the
reconciled state; --write stores the result back into the --prev file.`,
	Annotations: map[string]string{annotationConfigOptional: "true"},
	RunE:        runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcilePrev, "prev", "", "snapshot holding the previous state")
	reconcileCmd.Flags().StringVar(&reconcileStatus, "status", "", "snapshot holding the new status (required)")
	reconcileCmd.Flags().BoolVarP(&reconcileWrite, "write", "w", false, "write the new state to the --prev file")
	reconcileCmd.Flags().BoolVar(&reconcileJSON, "json", false, "output as JSON")
	reconcileCmd.Flags().BoolVar(&reconcileClearPartial, "clear-partial", false, "reset partially selected files")
	reconcileCmd.Flags().StringSliceVar(&reconcileSelect, "select", nil, "select files by path")
	reconcileCmd.Flags().StringSliceVar(&reconcileResolve, "resolve", nil, "record a manual resolution as path=ours|theirs")

	_ = reconcileCmd.MarkFlagRequired("status") // Safe to ignore - panics caught at startup
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if reconcileWrite && reconcilePrev == "" {
		return fmt.Errorf("--write requires --prev")
	}

	resolutions, err := parseResolutions(reconcileResolve)
	if err != nil {
		return err
	}

	statusSnap, err := snapshot.Load(reconcileStatus)
	if err != nil {
		return fmt.Errorf("failed to load status snapshot: %w", err)
	}
	status, err := statusSnap.ToStatus()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", reconcileStatus, err)
	}

	prevSnap := snapshot.New()
	if reconcilePrev != "" {
		prevSnap, err = snapshot.Load(reconcilePrev)
		if err != nil {
			return fmt.Errorf("failed to load previous snapshot: %w", err)
		}
	}
	prev, err := prevSnap.ToState()
	if err != nil {
		return fmt.Errorf("failed to read previous state: %w", err)
	}

	name := prevSnap.Repository
	if name == "" {
		name = statusSnap.Repository
	}

	counters := stats.NewStore()
	store := session.NewStore(name,
		session.WithState(prev),
		session.WithStats(counters),
		session.WithLogger(logger),
		session.WithClearPartialSelection(reconcileClearPartial || cfg.General.ClearPartialSelection),
	)

	result := store.Apply(status)

	if len(reconcileSelect) > 0 || len(resolutions) > 0 {
		store.Update(func(s changes.State) changes.State {
			if len(reconcileSelect) > 0 {
				s.Selection = changes.SelectWorkingDirectoryFiles(s, filesByPath(s.WorkingDirectory, reconcileSelect))
			}
			for _, r := range resolutions {
				s.Conflict = changes.WithManualResolution(s.Conflict, r.path, r.resolution)
			}
			return s
		})
		result.State, result.Version = store.State()
	}

	if reconcileWrite {
		prevSnap.Repository = name
		prevSnap.Status = snapshot.FromStatus(status)
		prevSnap.State = snapshot.FromState(result.State)
		if err := prevSnap.Save(reconcilePrev); err != nil {
			return fmt.Errorf("failed to write %s: %w", reconcilePrev, err)
		}
	}

	out := cmd.OutOrStdout()
	if reconcileJSON {
		return outputReconcileJSON(out, result, counters)
	}

	fmt.Fprint(out, ui.RenderState(displayName(name), result.State))
	if result.Signal != changes.SignalNone {
		fmt.Fprintf(out, "signal: %s\n", result.Signal)
	}
	return nil
}

type resolution struct {
	path       string
	resolution changes.ManualResolution
}

func parseResolutions(values []string) ([]resolution, error) {
	var out []resolution
	for _, v := range values {
		path, side, ok := strings.Cut(v, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid resolution %q: expected path=ours|theirs", v)
		}
		r, err := changes.ParseManualResolution(side)
		if err != nil {
			return nil, fmt.Errorf("invalid resolution for %s: %w", path, err)
		}
		out = append(out, resolution{path: path, resolution: r})
	}
	return out, nil
}

// filesByPath returns the working directory files at the given paths,
// whatever their status.
func filesByPath(wd changes.WorkingDirectory, paths []string) []changes.WorkingDirectoryFile {
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[p] = true
	}

	var files []changes.WorkingDirectoryFile
	for _, f := range wd.Files() {
		if want[f.Path] {
			files = append(files, f)
		}
	}
	return files
}

func displayName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}

func outputReconcileJSON(out io.Writer, result session.Result, counters *stats.Store) error {
	type jsonReconcile struct {
		jsonRepoStatus
		Version uint64         `json:"version"`
		Signal  string         `json:"signal"`
		Stats   map[string]int `json:"stats,omitempty"`
	}

	output := jsonReconcile{
		jsonRepoStatus: toJSONStatus(result),
		Version:        result.Version,
		Signal:         result.Signal.String(),
		Stats:          counters.Snapshot(),
	}
	output.Name = displayName(result.Repository)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
