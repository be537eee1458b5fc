// Package changes reconciles freshly sampled repository status with the
// state the application already holds: which files are selected, which diff
// is cached, and whether a merge or rebase is in a conflicted state.
//
// Every function in this package takes the previous state by value and
// returns a new one. Callers are responsible for committing the result
// before the next refresh is processed.
package changes

import (
	"fmt"
	"strings"
)

// FileStatus is the state of a changed file in the working directory.
type FileStatus int

const (
	StatusNew FileStatus = iota
	StatusModified
	StatusDeleted
	StatusRenamed
	StatusConflicted
	StatusResolved
	StatusCopied
)

var fileStatusNames = [...]string{
	StatusNew:        "New",
	StatusModified:   "Modified",
	StatusDeleted:    "Deleted",
	StatusRenamed:    "Renamed",
	StatusConflicted: "Conflicted",
	StatusResolved:   "Resolved",
	StatusCopied:     "Copied",
}

func (s FileStatus) String() string {
	if s < 0 || int(s) >= len(fileStatusNames) {
		return fmt.Sprintf("FileStatus(%d)", int(s))
	}
	return fileStatusNames[s]
}

// ParseFileStatus converts a status name, matched case-insensitively, back
// into a FileStatus.
func ParseFileStatus(name string) (FileStatus, error) {
	for i, n := range fileStatusNames {
		if strings.EqualFold(n, name) {
			return FileStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown file status: %q", name)
}

// WorkingDirectoryFile is a changed file together with the user's choice of
// which of its lines go into the next commit.
type WorkingDirectoryFile struct {
	Path      string
	Status    FileStatus
	Selection DiffSelection
}

// NewWorkingDirectoryFile returns a file with every line included.
func NewWorkingDirectoryFile(path string, status FileStatus) WorkingDirectoryFile {
	return WorkingDirectoryFile{
		Path:      path,
		Status:    status,
		Selection: NewDiffSelection(SelectionAll),
	}
}

// ID identifies the file across refreshes. It only changes when the path or
// the status of the file changes.
func (f WorkingDirectoryFile) ID() string {
	return f.Status.String() + "+" + f.Path
}

// WithSelection returns a copy of f using the given selection.
func (f WorkingDirectoryFile) WithSelection(s DiffSelection) WorkingDirectoryFile {
	f.Selection = s
	return f
}

// WithIncludeAll returns a copy of f with every line included or excluded.
func (f WorkingDirectoryFile) WithIncludeAll(include bool) WorkingDirectoryFile {
	return f.WithSelection(f.Selection.WithSelectAll(include))
}
