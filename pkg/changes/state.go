package changes

// CheckState is the tri-state of the "include all" checkbox above the list
// of changed files.
type CheckState int

const (
	CheckStateChecked CheckState = iota
	CheckStateUnchecked
	CheckStateMixed
)

func (c CheckState) String() string {
	switch c {
	case CheckStateChecked:
		return "checked"
	case CheckStateUnchecked:
		return "unchecked"
	default:
		return "mixed"
	}
}

// WorkingDirectory is the list of changed files in a repository.
type WorkingDirectory struct {
	files      []WorkingDirectoryFile
	includeAll CheckState
}

// NewWorkingDirectory builds a working directory from files, computing the
// include-all state. The slice is copied.
func NewWorkingDirectory(files []WorkingDirectoryFile) WorkingDirectory {
	out := make([]WorkingDirectoryFile, len(files))
	copy(out, files)
	return WorkingDirectory{files: out, includeAll: includeAllState(out)}
}

// Files returns a copy of the files.
func (w WorkingDirectory) Files() []WorkingDirectoryFile {
	out := make([]WorkingDirectoryFile, len(w.files))
	copy(out, w.files)
	return out
}

// Len returns the number of files.
func (w WorkingDirectory) Len() int {
	return len(w.files)
}

// IncludeAll returns the include-all checkbox state.
func (w WorkingDirectory) IncludeAll() CheckState {
	return w.includeAll
}

// FindByID looks up a file by its ID.
func (w WorkingDirectory) FindByID(id string) (WorkingDirectoryFile, bool) {
	for _, f := range w.files {
		if f.ID() == id {
			return f, true
		}
	}
	return WorkingDirectoryFile{}, false
}

// WithIncludeAll returns a working directory with every file included or
// excluded.
func (w WorkingDirectory) WithIncludeAll(include bool) WorkingDirectory {
	files := make([]WorkingDirectoryFile, len(w.files))
	for i, f := range w.files {
		files[i] = f.WithIncludeAll(include)
	}
	return NewWorkingDirectory(files)
}

func includeAllState(files []WorkingDirectoryFile) CheckState {
	if len(files) == 0 {
		return CheckStateChecked
	}

	all, none := true, true
	for _, f := range files {
		switch f.Selection.Type() {
		case SelectionAll:
			none = false
		case SelectionNone:
			all = false
		default:
			return CheckStateMixed
		}
	}

	switch {
	case all:
		return CheckStateChecked
	case none:
		return CheckStateUnchecked
	default:
		return CheckStateMixed
	}
}

// Diff is a rendered diff for a single file. The application caches one
// while exactly one file is selected.
type Diff struct {
	Path   string
	Text   string
	Binary bool
}

// Selection is what the changes view currently shows: either files in the
// working directory or a stash.
type Selection interface {
	isSelection()
}

// WorkingDirectorySelection selects one or more working directory files.
// Diff is the cached diff, kept only while a single file is selected.
type WorkingDirectorySelection struct {
	SelectedFileIDs []string
	Diff            *Diff
}

// StashSelection shows a stash entry instead of the working directory.
type StashSelection struct {
	SelectedStashedFile string
}

func (WorkingDirectorySelection) isSelection() {}
func (StashSelection) isSelection()            {}

// State is the changes sub-state held for one repository.
type State struct {
	WorkingDirectory WorkingDirectory
	Selection        Selection
	Conflict         ConflictState
}

// NewState returns the state of a repository that has not been sampled yet.
func NewState() State {
	return State{
		WorkingDirectory: NewWorkingDirectory(nil),
		Selection:        WorkingDirectorySelection{},
	}
}

// RebaseInternalState is read from git's rebase working files while a rebase
// is in progress.
type RebaseInternalState struct {
	TargetBranch      string
	OriginalBranchTip string
	BaseBranchTip     string
}

// StatusResult is a point-in-time sample of a repository. Empty
// CurrentBranch or CurrentTip mean the value is unknown.
type StatusResult struct {
	CurrentBranch       string
	CurrentTip          string
	MergeHeadFound      bool
	RebaseInternalState *RebaseInternalState
	Files               []WorkingDirectoryFile
}

// HasConflictingMarkers reports whether both a merge and a rebase appear to
// be in progress. Git never produces this; it signals a broken sample.
func (s *StatusResult) HasConflictingMarkers() bool {
	return s.MergeHeadFound && s.RebaseInternalState != nil
}
