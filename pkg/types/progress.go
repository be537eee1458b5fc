// Package types holds the messages passed between the command layer and the
// terminal UI.
package types

import (
	"time"

	"github.com/tierone/deckhand/pkg/progress"
)

// OperationState is where a tracked operation is in its lifecycle.
type OperationState string

const (
	StateRunning  OperationState = "running"
	StateComplete OperationState = "complete"
	StateFailed   OperationState = "failed"
)

// ProgressMsg is the rich progress message for UI display. Percent is in
// the range 0..1.
type ProgressMsg struct {
	Name        string
	Operation   string
	State       OperationState
	Percent     float64
	Title       string
	Text        string
	Error       error
	StartedAt   time.Time
	CompletedAt *time.Time
}

// IsComplete returns true if the progress message indicates completion.
func (p ProgressMsg) IsComplete() bool {
	return p.State == StateComplete || p.State == StateFailed
}

// NewEventMsg converts a parser event for the named operation stream.
func NewEventMsg(name, operation string, ev progress.Event) ProgressMsg {
	msg := ProgressMsg{
		Name:      name,
		Operation: operation,
		State:     StateRunning,
		Percent:   ev.Percentage(),
		StartedAt: time.Now(),
	}

	switch ev := ev.(type) {
	case progress.Progress:
		msg.Title = ev.Details.Title
		msg.Text = ev.Details.Text
	case progress.Context:
		msg.Text = ev.Text
	}

	return msg
}

// NewCompletedMsg creates a completed ProgressMsg.
func NewCompletedMsg(name, operation, text string) ProgressMsg {
	now := time.Now()
	return ProgressMsg{
		Name:        name,
		Operation:   operation,
		State:       StateComplete,
		Percent:     1,
		Text:        text,
		StartedAt:   now,
		CompletedAt: &now,
	}
}

// NewErrorMsg creates a failed ProgressMsg.
func NewErrorMsg(name, operation string, err error) ProgressMsg {
	now := time.Now()
	return ProgressMsg{
		Name:        name,
		Operation:   operation,
		State:       StateFailed,
		Error:       err,
		StartedAt:   now,
		CompletedAt: &now,
	}
}
