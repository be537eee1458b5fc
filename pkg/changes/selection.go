package changes

import "sort"

// SelectionType describes how much of a file's diff is included.
type SelectionType int

const (
	// SelectionAll includes the entire file.
	SelectionAll SelectionType = iota
	// SelectionPartial includes a subset of the lines.
	SelectionPartial
	// SelectionNone excludes the file.
	SelectionNone
)

func (t SelectionType) String() string {
	switch t {
	case SelectionAll:
		return "all"
	case SelectionPartial:
		return "partial"
	case SelectionNone:
		return "none"
	default:
		return "unknown"
	}
}

// DiffSelection records which lines of a diff are included in a commit. It
// is stored as a default (all or none) plus the set of lines that diverge
// from that default. The zero value includes everything.
//
// DiffSelection is immutable; every With method returns a new value.
type DiffSelection struct {
	defaultType SelectionType
	diverging   map[int]struct{}
	selectable  map[int]struct{}
}

// NewDiffSelection creates a selection where all or no lines are included.
// Any other initial type is treated as SelectionAll.
func NewDiffSelection(initial SelectionType) DiffSelection {
	if initial != SelectionNone {
		initial = SelectionAll
	}
	return DiffSelection{defaultType: initial}
}

// NewDiffSelectionWithLines creates a selection with the given default and
// lines diverging from it.
func NewDiffSelectionWithLines(initial SelectionType, diverging []int) DiffSelection {
	s := NewDiffSelection(initial)
	if len(diverging) == 0 {
		return s
	}
	s.diverging = make(map[int]struct{}, len(diverging))
	for _, l := range diverging {
		s.diverging[l] = struct{}{}
	}
	return s
}

// Default returns the selection type lines fall back to when they do not
// diverge.
func (s DiffSelection) Default() SelectionType {
	return s.defaultType
}

// Type computes the current selection type.
func (s DiffSelection) Type() SelectionType {
	if len(s.diverging) == 0 {
		return s.defaultType
	}

	if s.selectable != nil && len(s.diverging) == len(s.selectable) {
		if s.defaultType == SelectionAll {
			return SelectionNone
		}
		return SelectionAll
	}

	return SelectionPartial
}

// IsSelected reports whether the given line is included.
func (s DiffSelection) IsSelected(line int) bool {
	_, diverges := s.diverging[line]
	if s.defaultType == SelectionAll {
		return !diverges
	}
	return diverges
}

// WithSelectAll returns a selection with every line included or excluded.
func (s DiffSelection) WithSelectAll(selected bool) DiffSelection {
	t := SelectionNone
	if selected {
		t = SelectionAll
	}
	return DiffSelection{defaultType: t, selectable: s.selectable}
}

// WithLineSelected includes or excludes a single line. Lines outside the
// selectable set, when one is known, are ignored.
func (s DiffSelection) WithLineSelected(line int, selected bool) DiffSelection {
	if s.selectable != nil {
		if _, ok := s.selectable[line]; !ok {
			return s
		}
	}
	if s.IsSelected(line) == selected {
		return s
	}

	next := DiffSelection{
		defaultType: s.defaultType,
		diverging:   copySet(s.diverging),
		selectable:  s.selectable,
	}
	if next.diverging == nil {
		next.diverging = make(map[int]struct{})
	}

	if (s.defaultType == SelectionAll) == selected {
		delete(next.diverging, line)
	} else {
		next.diverging[line] = struct{}{}
	}
	return next
}

// WithSelectableLines restricts the selection to the given lines. Diverging
// lines that are no longer selectable are dropped.
func (s DiffSelection) WithSelectableLines(lines []int) DiffSelection {
	selectable := make(map[int]struct{}, len(lines))
	for _, l := range lines {
		selectable[l] = struct{}{}
	}

	var diverging map[int]struct{}
	for l := range s.diverging {
		if _, ok := selectable[l]; ok {
			if diverging == nil {
				diverging = make(map[int]struct{})
			}
			diverging[l] = struct{}{}
		}
	}

	return DiffSelection{defaultType: s.defaultType, diverging: diverging, selectable: selectable}
}

// DivergingLines returns the lines that differ from the default, sorted.
func (s DiffSelection) DivergingLines() []int {
	lines := make([]int, 0, len(s.diverging))
	for l := range s.diverging {
		lines = append(lines, l)
	}
	sort.Ints(lines)
	return lines
}

func copySet(in map[int]struct{}) map[int]struct{} {
	if in == nil {
		return nil
	}
	out := make(map[int]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}
