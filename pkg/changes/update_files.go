package changes

import (
	"sort"
	"strings"
)

// ChangedFilesResult is the part of State replaced by UpdateChangedFiles.
type ChangedFilesResult struct {
	WorkingDirectory WorkingDirectory
	Selection        Selection
}

// UpdateChangedFiles merges a freshly sampled file list into the previous
// state. Selections of files that are still present carry over, the file
// selection is filtered to files that still exist, and the cached diff is
// kept only while the same single file stays selected.
//
// When clearPartialSelection is set, files that had only some of their lines
// selected are reset to excluded instead of carrying over the selection.
func UpdateChangedFiles(state State, files []WorkingDirectoryFile, clearPartialSelection bool) ChangedFilesResult {
	byID := make(map[string]WorkingDirectoryFile, state.WorkingDirectory.Len())
	for _, f := range state.WorkingDirectory.files {
		byID[f.ID()] = f
	}

	merged := make([]WorkingDirectoryFile, 0, len(files))
	for _, f := range files {
		existing, ok := byID[f.ID()]
		switch {
		case !ok:
			merged = append(merged, f)
		case clearPartialSelection && existing.Selection.Type() == SelectionPartial:
			merged = append(merged, f.WithIncludeAll(false))
		default:
			merged = append(merged, f.WithSelection(existing.Selection))
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return compareFold(merged[i].Path, merged[j].Path) < 0
	})

	wd := NewWorkingDirectory(merged)

	prev, ok := state.Selection.(WorkingDirectorySelection)
	if !ok {
		// Stash selections are not tied to the working directory.
		return ChangedFilesResult{WorkingDirectory: wd, Selection: state.Selection}
	}

	return ChangedFilesResult{
		WorkingDirectory: wd,
		Selection:        reconcileSelection(prev, wd),
	}
}

// SelectWorkingDirectoryFiles switches the selection to the working directory,
// selecting the given files. When files is empty the previously selected
// files are kept if they still exist, otherwise the first file is selected.
// The cached diff survives only when the selection is unchanged.
func SelectWorkingDirectoryFiles(state State, files []WorkingDirectoryFile) Selection {
	var prev WorkingDirectorySelection
	if sel, ok := state.Selection.(WorkingDirectorySelection); ok {
		prev = sel
	}

	if len(files) == 0 {
		return reconcileSelection(prev, state.WorkingDirectory)
	}

	ids := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := state.WorkingDirectory.FindByID(f.ID()); ok {
			ids = append(ids, f.ID())
		}
	}
	if len(ids) == 0 {
		return reconcileSelection(prev, state.WorkingDirectory)
	}

	next := WorkingDirectorySelection{SelectedFileIDs: ids}
	if sameSingleFile(prev.SelectedFileIDs, ids) {
		next.Diff = prev.Diff
	}
	return next
}

func reconcileSelection(prev WorkingDirectorySelection, wd WorkingDirectory) WorkingDirectorySelection {
	present := make(map[string]struct{}, wd.Len())
	for _, f := range wd.files {
		present[f.ID()] = struct{}{}
	}

	ids := make([]string, 0, len(prev.SelectedFileIDs))
	for _, id := range prev.SelectedFileIDs {
		if _, ok := present[id]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 && wd.Len() > 0 {
		ids = append(ids, wd.files[0].ID())
	}

	next := WorkingDirectorySelection{SelectedFileIDs: ids}
	if sameSingleFile(prev.SelectedFileIDs, ids) {
		next.Diff = prev.Diff
	}
	return next
}

func sameSingleFile(prev, next []string) bool {
	return len(prev) == 1 && len(next) == 1 && prev[0] == next[0]
}

// compareFold orders paths case-insensitively, falling back to a byte
// comparison so the order is total.
func compareFold(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
