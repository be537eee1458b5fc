package config

import "github.com/tierone/deckhand/pkg/progress"

// Operation overrides or adds the progress phases of a git operation.
type Operation struct {
	Name   string
	Phases []Phase
}

// Phase is a named stretch of an operation with a relative weight.
type Phase struct {
	Title  string
	Weight float64
}

// OperationFile is the raw TOML structure for an operation.
type OperationFile struct {
	Name   string      `toml:"name"`
	Phases []PhaseFile `toml:"phase"`
}

// PhaseFile is the raw TOML structure for a phase.
type PhaseFile struct {
	Title  string  `toml:"title"`
	Weight float64 `toml:"weight"`
}

// Steps converts the phases to parser steps.
func (o *Operation) Steps() []progress.Step {
	steps := make([]progress.Step, len(o.Phases))
	for i, p := range o.Phases {
		steps[i] = progress.Step{Title: p.Title, Weight: p.Weight}
	}
	return steps
}
