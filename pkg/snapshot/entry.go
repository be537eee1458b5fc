package snapshot

// StatusEntry is a sampled repository status.
type StatusEntry struct {
	CurrentBranch  string       `toml:"current_branch,omitempty"`
	CurrentTip     string       `toml:"current_tip,omitempty"`
	MergeHeadFound bool         `toml:"merge_head_found"`
	Rebase         *RebaseEntry `toml:"rebase,omitempty"`
	Files          []FileEntry  `toml:"file,omitempty"`
}

// RebaseEntry mirrors the files git keeps while a rebase is stopped.
type RebaseEntry struct {
	TargetBranch      string `toml:"target_branch"`
	OriginalBranchTip string `toml:"original_branch_tip"`
	BaseBranchTip     string `toml:"base_branch_tip,omitempty"`
}

// FileEntry is a changed file. Selection is "all" or "none" and Lines lists
// the lines diverging from it; both are ignored in status sections.
type FileEntry struct {
	Path      string `toml:"path"`
	Status    string `toml:"status"`
	Selection string `toml:"selection,omitempty"`
	Lines     []int  `toml:"lines,omitempty"`
}

// StateEntry is the state held for a repository between refreshes.
type StateEntry struct {
	// Selection is "working_directory" (the default) or "stash".
	Selection   string         `toml:"selection,omitempty"`
	Selected    []string       `toml:"selected,omitempty"`
	StashedFile string         `toml:"stashed_file,omitempty"`
	Diff        *DiffEntry     `toml:"diff,omitempty"`
	Files       []FileEntry    `toml:"file,omitempty"`
	Conflict    *ConflictEntry `toml:"conflict,omitempty"`
}

// DiffEntry is a cached diff.
type DiffEntry struct {
	Path   string `toml:"path"`
	Text   string `toml:"text,omitempty"`
	Binary bool   `toml:"binary,omitempty"`
}

// ConflictEntry is a merge or rebase stopped on conflicts.
type ConflictEntry struct {
	Kind              string            `toml:"kind"`
	CurrentBranch     string            `toml:"current_branch,omitempty"`
	CurrentTip        string            `toml:"current_tip"`
	TargetBranch      string            `toml:"target_branch,omitempty"`
	OriginalBranchTip string            `toml:"original_branch_tip,omitempty"`
	BaseBranchTip     string            `toml:"base_branch_tip,omitempty"`
	Resolutions       map[string]string `toml:"resolutions,omitempty"`
}

const (
	selectionWorkingDirectory = "working_directory"
	selectionStash            = "stash"

	conflictMerge  = "merge"
	conflictRebase = "rebase"
)
