package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tierone/deckhand/pkg/changes"
	"github.com/tierone/deckhand/pkg/sampler"
	"github.com/tierone/deckhand/pkg/session"
	"github.com/tierone/deckhand/pkg/snapshot"
	"github.com/tierone/deckhand/pkg/ui"
)

var (
	statusJSON      bool
	statusPorcelain bool
	statusTag       string
	statusSave      string
)

var statusCmd = &cobra.Command{
	Use:   "status [repository...]",
	Short: "Show the changed files and conflict state of repositories",
	Long: `Sample the configured repositories and show their changed files,
selection state and any merge or rebase stopped on conflicts.

Use --save to write a snapshot per repository into a directory; snapshots
can be replayed with 'dh reconcile'.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	statusCmd.Flags().BoolVar(&statusPorcelain, "porcelain", false, "machine-readable output")
	statusCmd.Flags().StringVarP(&statusTag, "tag", "t", "", "show repositories with tag")
	statusCmd.Flags().StringVar(&statusSave, "save", "", "write snapshots into `dir`")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	filter := session.Filter{}
	if len(args) > 0 {
		filter.Names = args
	} else if statusTag != "" {
		filter.Tags = []string{statusTag}
	} else {
		filter.All = true
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	mgr := session.NewManager(cfg, sampler.New(), session.WithManagerLogger(logger))
	results, err := mgr.RefreshAll(ctx, filter)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No repositories configured")
		return nil
	}

	if statusSave != "" {
		if err := saveSnapshots(statusSave, results); err != nil {
			return err
		}
	}

	switch {
	case statusJSON:
		err = outputStatusJSON(out, results)
	case statusPorcelain:
		outputStatusPorcelain(out, results)
	default:
		outputStatusText(out, results)
	}
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Err != nil {
			return errFailures
		}
	}
	return nil
}

func saveSnapshots(dir string, results []session.Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	for _, r := range results {
		if r.Err != nil || r.Status == nil {
			continue
		}
		snap := snapshot.New()
		snap.Repository = r.Repository
		snap.Status = snapshot.FromStatus(r.Status)
		snap.State = snapshot.FromState(r.State)

		path := filepath.Join(dir, r.Repository+".toml")
		if err := snap.Save(path); err != nil {
			return fmt.Errorf("failed to save snapshot for %s: %w", r.Repository, err)
		}
		logger.Debug("snapshot saved", "repository", r.Repository, "path", path)
	}
	return nil
}

type jsonFile struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	Selection string `json:"selection"`
}

type jsonConflict struct {
	Kind        string            `json:"kind"`
	Branch      string            `json:"branch"`
	Tip         string            `json:"tip"`
	Resolutions map[string]string `json:"resolutions,omitempty"`
}

type jsonRepoStatus struct {
	Name       string        `json:"name"`
	Path       string        `json:"path"`
	Branch     string        `json:"branch,omitempty"`
	Tip        string        `json:"tip,omitempty"`
	IncludeAll string        `json:"include_all"`
	Selected   []string      `json:"selected,omitempty"`
	Files      []jsonFile    `json:"files"`
	Conflict   *jsonConflict `json:"conflict,omitempty"`
	Error      string        `json:"error,omitempty"`
}

func toJSONStatus(r session.Result) jsonRepoStatus {
	s := jsonRepoStatus{
		Name:  r.Repository,
		Path:  r.Path,
		Files: []jsonFile{},
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
		return s
	}
	if r.Status != nil {
		s.Branch = r.Status.CurrentBranch
		s.Tip = r.Status.CurrentTip
	}

	s.IncludeAll = r.State.WorkingDirectory.IncludeAll().String()
	for _, f := range r.State.WorkingDirectory.Files() {
		s.Files = append(s.Files, jsonFile{
			Path:      f.Path,
			Status:    f.Status.String(),
			Selection: f.Selection.Type().String(),
		})
	}
	if sel, ok := r.State.Selection.(changes.WorkingDirectorySelection); ok {
		s.Selected = sel.SelectedFileIDs
	}

	s.Conflict = toJSONConflict(r.State.Conflict)
	return s
}

func toJSONConflict(c changes.ConflictState) *jsonConflict {
	var jc *jsonConflict
	switch c := c.(type) {
	case *changes.MergeConflict:
		jc = &jsonConflict{Kind: "merge", Branch: c.CurrentBranch, Tip: c.CurrentTip}
	case *changes.RebaseConflict:
		jc = &jsonConflict{Kind: "rebase", Branch: c.TargetBranch, Tip: c.CurrentTip}
	default:
		return nil
	}

	for path, res := range c.Resolutions() {
		if jc.Resolutions == nil {
			jc.Resolutions = make(map[string]string)
		}
		jc.Resolutions[path] = res.String()
	}
	return jc
}

func outputStatusJSON(out io.Writer, results []session.Result) error {
	output := make([]jsonRepoStatus, len(results))
	for i, r := range results {
		output[i] = toJSONStatus(r)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func outputStatusPorcelain(out io.Writer, results []session.Result) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "## %s error %s\n", r.Repository, r.Err)
			continue
		}
		branch, tip := "-", "-"
		if r.Status != nil {
			if r.Status.CurrentBranch != "" {
				branch = r.Status.CurrentBranch
			}
			if r.Status.CurrentTip != "" {
				tip = r.Status.CurrentTip
			}
		}
		fmt.Fprintf(out, "## %s %s %s\n", r.Repository, branch, tip)
		fmt.Fprint(out, ui.Porcelain(r.State))
	}
}

func outputStatusText(out io.Writer, results []session.Result) {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if r.Err != nil {
			fmt.Fprintf(out, "%s %s %s\n", ui.SymbolError, ui.TitleStyle.Render(r.Repository), ui.ErrorStyle.Render(r.Err.Error()))
			continue
		}
		name := r.Repository
		if r.Status != nil && r.Status.CurrentBranch != "" {
			name += ui.MutedStyle.Render(" on " + r.Status.CurrentBranch)
		}
		fmt.Fprint(out, ui.RenderState(name, r.State))
	}
}
