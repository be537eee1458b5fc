package progress

import "sort"

// Operation names with built-in step lists.
const (
	OpClone    = "clone"
	OpFetch    = "fetch"
	OpPull     = "pull"
	OpPush     = "push"
	OpCheckout = "checkout"
)

var presets = map[string][]Step{
	OpClone: {
		{Title: "remote: Compressing objects", Weight: 0.1},
		{Title: "Receiving objects", Weight: 0.6},
		{Title: "Resolving deltas", Weight: 0.1},
		{Title: "Checking out files", Weight: 0.2},
	},
	OpFetch: {
		{Title: "remote: Compressing objects", Weight: 0.1},
		{Title: "Receiving objects", Weight: 0.7},
		{Title: "Resolving deltas", Weight: 0.2},
	},
	OpPull: {
		{Title: "remote: Compressing objects", Weight: 0.1},
		{Title: "Receiving objects", Weight: 0.7},
		{Title: "Resolving deltas", Weight: 0.15},
		{Title: "Checking out files", Weight: 0.15},
	},
	OpPush: {
		{Title: "Compressing objects", Weight: 0.2},
		{Title: "Writing objects", Weight: 0.7},
		{Title: "remote: Resolving deltas", Weight: 0.1},
	},
	OpCheckout: {
		{Title: "Checking out files", Weight: 1},
	},
}

// Preset returns a copy of the built-in steps for the named operation.
func Preset(name string) ([]Step, bool) {
	steps, ok := presets[name]
	if !ok {
		return nil, false
	}
	out := make([]Step, len(steps))
	copy(out, steps)
	return out, true
}

// PresetNames returns the names of all built-in operations, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
