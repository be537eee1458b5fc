package changes

import (
	"fmt"
	"maps"
	"strings"
)

// ManualResolution is the side the user picked for a conflicted file that
// cannot be resolved by editing conflict markers.
type ManualResolution int

const (
	ResolveOurs ManualResolution = iota
	ResolveTheirs
)

func (r ManualResolution) String() string {
	if r == ResolveTheirs {
		return "theirs"
	}
	return "ours"
}

// ParseManualResolution accepts "ours" or "theirs".
func ParseManualResolution(s string) (ManualResolution, error) {
	switch strings.ToLower(s) {
	case "ours":
		return ResolveOurs, nil
	case "theirs":
		return ResolveTheirs, nil
	default:
		return 0, fmt.Errorf("unknown manual resolution: %q", s)
	}
}

// ConflictState is either *MergeConflict or *RebaseConflict. A nil
// ConflictState means no conflicted operation is in progress.
type ConflictState interface {
	Resolutions() map[string]ManualResolution
	isConflictState()
}

// MergeConflict is a merge stopped on conflicts.
type MergeConflict struct {
	CurrentBranch     string
	CurrentTip        string
	ManualResolutions map[string]ManualResolution
}

// RebaseConflict is a rebase stopped on conflicts.
type RebaseConflict struct {
	CurrentTip        string
	TargetBranch      string
	OriginalBranchTip string
	// BaseBranchTip may be empty when git did not record it.
	BaseBranchTip     string
	ManualResolutions map[string]ManualResolution
}

func (c *MergeConflict) Resolutions() map[string]ManualResolution  { return c.ManualResolutions }
func (c *RebaseConflict) Resolutions() map[string]ManualResolution { return c.ManualResolutions }

func (*MergeConflict) isConflictState()  {}
func (*RebaseConflict) isConflictState() {}

// WithManualResolution returns a copy of the conflict state with the given
// resolution recorded for path. A nil state is returned unchanged.
func WithManualResolution(c ConflictState, path string, r ManualResolution) ConflictState {
	switch c := c.(type) {
	case *MergeConflict:
		next := *c
		next.ManualResolutions = withResolution(c.ManualResolutions, path, r)
		return &next
	case *RebaseConflict:
		next := *c
		next.ManualResolutions = withResolution(c.ManualResolutions, path, r)
		return &next
	default:
		return c
	}
}

func withResolution(m map[string]ManualResolution, path string, r ManualResolution) map[string]ManualResolution {
	out := maps.Clone(m)
	if out == nil {
		out = make(map[string]ManualResolution)
	}
	out[path] = r
	return out
}

// Signal is emitted when a conflicted merge or rebase ends.
type Signal int

const (
	SignalNone Signal = iota
	SignalMergeSucceeded
	SignalMergeAborted
	SignalRebaseSucceeded
	SignalRebaseAborted
)

func (s Signal) String() string {
	switch s {
	case SignalMergeSucceeded:
		return "mergeSucceeded"
	case SignalMergeAborted:
		return "mergeAborted"
	case SignalRebaseSucceeded:
		return "rebaseSucceeded"
	case SignalRebaseAborted:
		return "rebaseAborted"
	default:
		return "none"
	}
}

// Metric returns the name of the usage counter the signal increments, or an
// empty string for SignalNone.
func (s Signal) Metric() string {
	switch s {
	case SignalMergeSucceeded:
		return "mergeSuccessAfterConflictsCount"
	case SignalMergeAborted:
		return "mergeAbortedAfterConflictsCount"
	case SignalRebaseSucceeded:
		return "rebaseSuccessAfterConflictsCount"
	case SignalRebaseAborted:
		return "rebaseAbortedAfterConflictsCount"
	default:
		return ""
	}
}

// UpdateConflictState derives the conflict state from a fresh status sample
// and classifies how the previous conflict, if any, ended.
//
// If the sample reports both a merge and a rebase, the merge wins.
func UpdateConflictState(prev ConflictState, status *StatusResult) (ConflictState, Signal) {
	var resolutions map[string]ManualResolution
	if prev != nil {
		resolutions = maps.Clone(prev.Resolutions())
	}
	if resolutions == nil {
		resolutions = make(map[string]ManualResolution)
	}

	next := deriveConflictState(status, resolutions)
	if prev == nil {
		return next, SignalNone
	}

	switch p := prev.(type) {
	case *MergeConflict:
		switch n := next.(type) {
		case nil:
			return nil, mergeEnded(p, status)
		case *MergeConflict:
			if p.CurrentBranch != n.CurrentBranch {
				return n, SignalMergeAborted
			}
		}
	case *RebaseConflict:
		switch n := next.(type) {
		case nil:
			return nil, rebaseEnded(p, status)
		case *RebaseConflict:
			if p.TargetBranch != n.TargetBranch {
				return n, SignalRebaseAborted
			}
		}
	}

	return next, SignalNone
}

func deriveConflictState(status *StatusResult, resolutions map[string]ManualResolution) ConflictState {
	if status == nil {
		return nil
	}

	if status.MergeHeadFound {
		if status.CurrentBranch == "" || status.CurrentTip == "" {
			return nil
		}
		return &MergeConflict{
			CurrentBranch:     status.CurrentBranch,
			CurrentTip:        status.CurrentTip,
			ManualResolutions: resolutions,
		}
	}

	if rs := status.RebaseInternalState; rs != nil {
		if status.CurrentTip == "" {
			return nil
		}
		return &RebaseConflict{
			CurrentTip:        status.CurrentTip,
			TargetBranch:      rs.TargetBranch,
			OriginalBranchTip: rs.OriginalBranchTip,
			BaseBranchTip:     rs.BaseBranchTip,
			ManualResolutions: resolutions,
		}
	}

	return nil
}

// mergeEnded classifies a merge that is no longer conflicted. A moved HEAD
// means the merge commit was created.
func mergeEnded(prev *MergeConflict, status *StatusResult) Signal {
	if status == nil || status.CurrentTip == "" {
		return SignalNone
	}
	if status.CurrentTip != prev.CurrentTip {
		return SignalMergeSucceeded
	}
	return SignalMergeAborted
}

// rebaseEnded classifies a rebase that is no longer conflicted. The rebase
// only succeeded if HEAD moved away from the original tip and is back on the
// branch being rebased.
func rebaseEnded(prev *RebaseConflict, status *StatusResult) Signal {
	if status == nil || status.CurrentTip == "" || status.CurrentBranch == "" {
		return SignalNone
	}
	if status.CurrentTip != prev.OriginalBranchTip && status.CurrentBranch == prev.TargetBranch {
		return SignalRebaseSucceeded
	}
	return SignalRebaseAborted
}
