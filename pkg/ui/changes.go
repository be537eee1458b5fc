package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tierone/deckhand/pkg/changes"
)

// StatusLetter returns the one-letter code shown next to a changed file.
func StatusLetter(s changes.FileStatus) string {
	switch s {
	case changes.StatusNew:
		return "A"
	case changes.StatusModified:
		return "M"
	case changes.StatusDeleted:
		return "D"
	case changes.StatusRenamed:
		return "R"
	case changes.StatusConflicted:
		return "U"
	case changes.StatusResolved:
		return "S"
	case changes.StatusCopied:
		return "C"
	default:
		return "?"
	}
}

// Checkbox renders an include-all tri-state.
func Checkbox(c changes.CheckState) string {
	switch c {
	case changes.CheckStateChecked:
		return "[x]"
	case changes.CheckStateUnchecked:
		return "[ ]"
	default:
		return "[-]"
	}
}

func selectionBox(t changes.SelectionType) string {
	switch t {
	case changes.SelectionAll:
		return Checkbox(changes.CheckStateChecked)
	case changes.SelectionNone:
		return Checkbox(changes.CheckStateUnchecked)
	default:
		return Checkbox(changes.CheckStateMixed)
	}
}

func statusStyleFor(s changes.FileStatus) string {
	letter := StatusLetter(s)
	switch s {
	case changes.StatusNew, changes.StatusResolved:
		return SuccessStyle.Render(letter)
	case changes.StatusDeleted, changes.StatusConflicted:
		return ErrorStyle.Render(letter)
	case changes.StatusModified:
		return WarningStyle.Render(letter)
	default:
		return HighlightStyle.Render(letter)
	}
}

// ConflictBanner describes an in-progress conflicted merge or rebase, or
// returns an empty string when there is none.
func ConflictBanner(c changes.ConflictState) string {
	var lines []string
	switch c := c.(type) {
	case *changes.MergeConflict:
		lines = append(lines, fmt.Sprintf("Merge in progress on %s (%s)", c.CurrentBranch, shortSHA(c.CurrentTip)))
	case *changes.RebaseConflict:
		line := fmt.Sprintf("Rebasing %s (was %s)", c.TargetBranch, shortSHA(c.OriginalBranchTip))
		if c.BaseBranchTip != "" {
			line += " onto " + shortSHA(c.BaseBranchTip)
		}
		lines = append(lines, line)
	default:
		return ""
	}

	res := c.Resolutions()
	paths := make([]string, 0, len(res))
	for p := range res {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		lines = append(lines, fmt.Sprintf("  %s: %s", p, res[p]))
	}

	return BannerStyle.Render(strings.Join(lines, "\n"))
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// RenderState renders the changes view of one repository: the conflict
// banner, the include-all checkbox and one row per changed file. Selected
// files are marked with ">".
func RenderState(name string, state changes.State) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(name))
	b.WriteString("\n")

	if banner := ConflictBanner(state.Conflict); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}

	wd := state.WorkingDirectory
	if wd.Len() == 0 {
		b.WriteString(MutedStyle.Render("  No local changes"))
		b.WriteString("\n")
		return b.String()
	}

	fmt.Fprintf(&b, "  %s %d changed files\n", Checkbox(wd.IncludeAll()), wd.Len())

	selected := map[string]bool{}
	if sel, ok := state.Selection.(changes.WorkingDirectorySelection); ok {
		for _, id := range sel.SelectedFileIDs {
			selected[id] = true
		}
	}

	for _, f := range wd.Files() {
		marker := " "
		if selected[f.ID()] {
			marker = HighlightStyle.Render(">")
		}
		fmt.Fprintf(&b, "%s %s %s %s\n", marker, selectionBox(f.Selection.Type()), statusStyleFor(f.Status), f.Path)
	}

	if sel, ok := state.Selection.(changes.StashSelection); ok {
		fmt.Fprintf(&b, "  %s\n", MutedStyle.Render("stash: "+sel.SelectedStashedFile))
	}

	return b.String()
}

// Porcelain renders the state as stable, uncolored lines: one
// "<letter> <selection> <path>" line per file, preceded by a
// "# conflict <kind> <branch> <tip>" line while a conflict is in progress.
func Porcelain(state changes.State) string {
	var b strings.Builder

	switch c := state.Conflict.(type) {
	case *changes.MergeConflict:
		fmt.Fprintf(&b, "# conflict merge %s %s\n", c.CurrentBranch, c.CurrentTip)
	case *changes.RebaseConflict:
		fmt.Fprintf(&b, "# conflict rebase %s %s\n", c.TargetBranch, c.CurrentTip)
	}

	for _, f := range state.WorkingDirectory.Files() {
		fmt.Fprintf(&b, "%s %s %s\n", StatusLetter(f.Status), f.Selection.Type(), f.Path)
	}

	return b.String()
}
