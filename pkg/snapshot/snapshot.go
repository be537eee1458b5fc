// Package snapshot stores repository status samples and reconciled state as
// TOML so a refresh can be replayed offline.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tierone/deckhand/pkg/changes"
)

const (
	// CurrentVersion is the current snapshot format version.
	CurrentVersion = 1
)

var (
	// ErrUnknownStatus is returned for a file status name that is not recognized.
	ErrUnknownStatus = errors.New("unknown file status")

	// ErrNoStatus is returned by ToStatus when the snapshot has no status section.
	ErrNoStatus = errors.New("snapshot has no status")
)

// Snapshot is the on-disk document. Either section may be absent.
type Snapshot struct {
	Version     int          `toml:"version"`
	GeneratedAt time.Time    `toml:"generated_at"`
	Repository  string       `toml:"repository,omitempty"`
	Status      *StatusEntry `toml:"status,omitempty"`
	State       *StateEntry  `toml:"state,omitempty"`
	path        string
}

// New creates an empty snapshot.
func New() *Snapshot {
	return &Snapshot{
		Version:     CurrentVersion,
		GeneratedAt: time.Now(),
	}
}

// Load reads a snapshot file. A missing file yields an empty snapshot.
func Load(path string) (*Snapshot, error) {
	s := &Snapshot{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.Version = CurrentVersion
		s.GeneratedAt = time.Now()
		return s, nil
	}

	if _, err := toml.DecodeFile(path, s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	if s.Version > CurrentVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}

	return s, nil
}

// Save writes the snapshot to path.
func (s *Snapshot) Save(path string) error {
	s.GeneratedAt = time.Now()
	if s.Version == 0 {
		s.Version = CurrentVersion
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	if _, err := f.WriteString("# Deckhand snapshot\n# Written by 'dh status --save' and 'dh reconcile --write'\n\n"); err != nil {
		_ = f.Close()
		return err
	}

	if err := toml.NewEncoder(f).Encode(s); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	s.path = path
	return nil
}

// Path returns the file the snapshot was loaded from or saved to.
func (s *Snapshot) Path() string {
	return s.path
}

// ToStatus converts the status section.
func (s *Snapshot) ToStatus() (*changes.StatusResult, error) {
	if s.Status == nil {
		return nil, ErrNoStatus
	}

	files, err := toFiles(s.Status.Files, false)
	if err != nil {
		return nil, err
	}

	result := &changes.StatusResult{
		CurrentBranch:  s.Status.CurrentBranch,
		CurrentTip:     s.Status.CurrentTip,
		MergeHeadFound: s.Status.MergeHeadFound,
		Files:          files,
	}
	if r := s.Status.Rebase; r != nil {
		result.RebaseInternalState = &changes.RebaseInternalState{
			TargetBranch:      r.TargetBranch,
			OriginalBranchTip: r.OriginalBranchTip,
			BaseBranchTip:     r.BaseBranchTip,
		}
	}
	return result, nil
}

// ToState converts the state section. A missing section is the state of a
// repository that was never refreshed.
func (s *Snapshot) ToState() (changes.State, error) {
	state := changes.NewState()
	e := s.State
	if e == nil {
		return state, nil
	}

	files, err := toFiles(e.Files, true)
	if err != nil {
		return state, err
	}
	state.WorkingDirectory = changes.NewWorkingDirectory(files)

	switch e.Selection {
	case "", selectionWorkingDirectory:
		sel := changes.WorkingDirectorySelection{SelectedFileIDs: e.Selected}
		if e.Diff != nil {
			sel.Diff = &changes.Diff{Path: e.Diff.Path, Text: e.Diff.Text, Binary: e.Diff.Binary}
		}
		state.Selection = sel
	case selectionStash:
		state.Selection = changes.StashSelection{SelectedStashedFile: e.StashedFile}
	default:
		return state, fmt.Errorf("unknown selection kind: %q", e.Selection)
	}

	conflict, err := toConflict(e.Conflict)
	if err != nil {
		return state, err
	}
	state.Conflict = conflict

	return state, nil
}

// FromStatus converts a status result into a status section.
func FromStatus(status *changes.StatusResult) *StatusEntry {
	e := &StatusEntry{
		CurrentBranch:  status.CurrentBranch,
		CurrentTip:     status.CurrentTip,
		MergeHeadFound: status.MergeHeadFound,
	}
	if r := status.RebaseInternalState; r != nil {
		e.Rebase = &RebaseEntry{
			TargetBranch:      r.TargetBranch,
			OriginalBranchTip: r.OriginalBranchTip,
			BaseBranchTip:     r.BaseBranchTip,
		}
	}
	for _, f := range status.Files {
		e.Files = append(e.Files, FileEntry{Path: f.Path, Status: f.Status.String()})
	}
	return e
}

// FromState converts a reconciled state into a state section.
func FromState(state changes.State) *StateEntry {
	e := &StateEntry{}

	for _, f := range state.WorkingDirectory.Files() {
		e.Files = append(e.Files, FileEntry{
			Path:      f.Path,
			Status:    f.Status.String(),
			Selection: f.Selection.Default().String(),
			Lines:     f.Selection.DivergingLines(),
		})
	}

	switch sel := state.Selection.(type) {
	case changes.StashSelection:
		e.Selection = selectionStash
		e.StashedFile = sel.SelectedStashedFile
	case changes.WorkingDirectorySelection:
		e.Selection = selectionWorkingDirectory
		e.Selected = sel.SelectedFileIDs
		if sel.Diff != nil {
			e.Diff = &DiffEntry{Path: sel.Diff.Path, Text: sel.Diff.Text, Binary: sel.Diff.Binary}
		}
	}

	switch c := state.Conflict.(type) {
	case *changes.MergeConflict:
		e.Conflict = &ConflictEntry{
			Kind:          conflictMerge,
			CurrentBranch: c.CurrentBranch,
			CurrentTip:    c.CurrentTip,
			Resolutions:   fromResolutions(c.ManualResolutions),
		}
	case *changes.RebaseConflict:
		e.Conflict = &ConflictEntry{
			Kind:              conflictRebase,
			CurrentTip:        c.CurrentTip,
			TargetBranch:      c.TargetBranch,
			OriginalBranchTip: c.OriginalBranchTip,
			BaseBranchTip:     c.BaseBranchTip,
			Resolutions:       fromResolutions(c.ManualResolutions),
		}
	}

	return e
}

func toFiles(entries []FileEntry, withSelection bool) ([]changes.WorkingDirectoryFile, error) {
	files := make([]changes.WorkingDirectoryFile, 0, len(entries))
	for _, fe := range entries {
		status, err := changes.ParseFileStatus(fe.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %q for %s", ErrUnknownStatus, fe.Status, fe.Path)
		}

		f := changes.NewWorkingDirectoryFile(fe.Path, status)
		if withSelection {
			initial := changes.SelectionAll
			switch fe.Selection {
			case "", "all":
			case "none":
				initial = changes.SelectionNone
			default:
				return nil, fmt.Errorf("unknown selection %q for %s", fe.Selection, fe.Path)
			}
			f = f.WithSelection(changes.NewDiffSelectionWithLines(initial, fe.Lines))
		}
		files = append(files, f)
	}
	return files, nil
}

func toConflict(e *ConflictEntry) (changes.ConflictState, error) {
	if e == nil {
		return nil, nil
	}

	resolutions := make(map[string]changes.ManualResolution, len(e.Resolutions))
	for path, r := range e.Resolutions {
		res, err := changes.ParseManualResolution(r)
		if err != nil {
			return nil, fmt.Errorf("conflict resolution for %s: %w", path, err)
		}
		resolutions[path] = res
	}

	switch e.Kind {
	case conflictMerge:
		return &changes.MergeConflict{
			CurrentBranch:     e.CurrentBranch,
			CurrentTip:        e.CurrentTip,
			ManualResolutions: resolutions,
		}, nil
	case conflictRebase:
		return &changes.RebaseConflict{
			CurrentTip:        e.CurrentTip,
			TargetBranch:      e.TargetBranch,
			OriginalBranchTip: e.OriginalBranchTip,
			BaseBranchTip:     e.BaseBranchTip,
			ManualResolutions: resolutions,
		}, nil
	default:
		return nil, fmt.Errorf("unknown conflict kind: %q", e.Kind)
	}
}

func fromResolutions(m map[string]changes.ManualResolution) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for path, r := range m {
		out[path] = r.String()
	}
	return out
}
