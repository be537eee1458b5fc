package progress

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoSteps is returned by NewParser when no steps are given.
var ErrNoSteps = errors.New("must specify at least one step")

// Step identifies one phase of a git operation by the title git prints for
// it, e.g. "remote: Compressing objects" or "Receiving objects".
//
// Weight only needs to be proportional to the other steps of the same
// parser; weights are scaled to sum to 1 when the parser is created.
type Step struct {
	Title  string
	Weight float64
}

// LineParser is implemented by every parser that turns one output line into
// an Event.
type LineParser interface {
	Parse(line string) Event
}

// Parser estimates the overall progress of a git operation made of several
// steps, each of which git reports individually from 0 to 100%.
//
// Steps are expected in order but some may never be printed at all (remote
// compression is often skipped), so the parser remembers the furthest step
// seen and assumes everything before it is complete. A Parser must only be
// fed lines from a single process, in the order they were written.
type Parser struct {
	steps     []Step
	stepIndex int
	last      float64
}

// NewParser creates a parser for the given ordered steps.
func NewParser(steps []Step) (*Parser, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	var total float64
	for _, s := range steps {
		total += s.Weight
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("invalid total step weight %v", total)
	}

	normalized := make([]Step, len(steps))
	for i, s := range steps {
		normalized[i] = Step{Title: s.Title, Weight: s.Weight / total}
	}

	return &Parser{steps: normalized}, nil
}

// MustNewParser is like NewParser but panics on error. It is meant for
// parsers built from static step lists.
func MustNewParser(steps []Step) *Parser {
	p, err := NewParser(steps)
	if err != nil {
		panic(err)
	}
	return p
}

// Steps returns a copy of the normalized steps.
func (p *Parser) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Percent returns the last reported overall progress.
func (p *Parser) Percent() float64 {
	return p.last
}

// Parse interprets one line of output.
func (p *Parser) Parse(line string) Event {
	info := ParseLine(line)
	if info == nil {
		return Context{Percent: p.last, Text: line}
	}

	var base float64
	for i, step := range p.steps {
		if i >= p.stepIndex && info.Title == step.Title {
			percent := p.last
			if fraction, ok := info.Fraction(); ok {
				percent = base + step.Weight*fraction
			}

			p.stepIndex = i
			p.last = percent

			return Progress{Percent: percent, Details: *info}
		}
		base += step.Weight
	}

	return Context{Percent: p.last, Text: line}
}
