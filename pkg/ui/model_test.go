package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tierone/deckhand/pkg/progress"
	"github.com/tierone/deckhand/pkg/types"
)

func TestModel_UpdateKeepsInsertionOrder(t *testing.T) {
	m := NewModel("Test")

	for _, name := range []string{"b", "a", "b"} {
		next, _ := m.Update(ProgressMsg(types.NewEventMsg(name, "clone", progress.Context{Percent: 0.1})))
		m = next.(Model)
	}

	if len(m.order) != 2 || m.order[0] != "b" || m.order[1] != "a" {
		t.Errorf("expected order [b a], got %v", m.order)
	}
}

func TestModel_PercentDoesNotRegress(t *testing.T) {
	m := NewModel("Test")

	next, _ := m.Update(ProgressMsg(types.NewEventMsg("a", "clone", progress.Context{Percent: 0.6})))
	next, _ = next.(Model).Update(ProgressMsg(types.NewEventMsg("a", "clone", progress.Context{Percent: 0.2})))
	m = next.(Model)

	if m.operations["a"].percent != 0.6 {
		t.Errorf("expected percent 0.6, got %v", m.operations["a"].percent)
	}
}

func TestModel_CompleteQuits(t *testing.T) {
	m := NewModel("Test")
	next, cmd := m.Update(CompleteMsg{})
	if !next.(Model).done {
		t.Error("expected model to be done")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestModel_View(t *testing.T) {
	m := NewModel("Replay")
	next, _ := m.Update(ProgressMsg(types.NewCompletedMsg("clone.log", "clone", "done")))
	next, _ = next.(Model).Update(ProgressMsg(types.NewErrorMsg("push.log", "push", errors.New("boom"))))
	next, _ = next.(Model).Update(CompleteMsg{})

	view := next.(Model).View()
	for _, want := range []string{"Replay", "clone.log", "boom", "1 completed", "1 failed"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q, got:\n%s", want, view)
		}
	}
}

func TestModel_QuitKey(t *testing.T) {
	m := NewModel("Test")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if next.(Model).View() != "" {
		t.Error("expected empty view after quitting")
	}
}

func TestSimpleOutput(t *testing.T) {
	var buf bytes.Buffer
	out := NewSimpleOutput(&buf)

	total := 10
	for i := 1; i <= 10; i++ {
		out.Update(types.NewEventMsg("clone.log", "clone", progress.Progress{
			Percent: float64(i) / 20,
			Details: progress.Info{Title: "Receiving objects", Value: i, Total: &total},
		}))
	}
	out.Update(types.NewCompletedMsg("clone.log", "clone", "done"))
	out.Complete()

	got := buf.String()
	if !strings.Contains(got, "clone.log:   5% Receiving objects") {
		t.Errorf("expected first progress line, got:\n%s", got)
	}
	if !strings.Contains(got, "All 1 operations completed") {
		t.Errorf("expected summary, got:\n%s", got)
	}

	// One line per decile reached, plus completion.
	lines := strings.Count(got, "clone.log:")
	if lines != 7 {
		t.Errorf("expected 7 progress lines, got %d:\n%s", lines, got)
	}
}

func TestProgressManager_NonInteractive(t *testing.T) {
	var buf bytes.Buffer
	pm := NewProgressManager("Test", false, &buf)
	if err := pm.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pm.SendEvent("fetch.log", "fetch", progress.Context{Percent: 0.5, Text: "remote: Counting"})
	pm.SendProgress(types.NewCompletedMsg("fetch.log", "fetch", "done"))
	pm.SendResult(types.OperationResult{Name: "fetch.log", Success: true, Percent: 1})
	pm.Complete()

	summary := pm.Wait(0)
	if summary.Total != 1 || summary.HasFailures() {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if !strings.Contains(buf.String(), "fetch.log") {
		t.Errorf("expected output for fetch.log, got:\n%s", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	if truncate("short", 10) != "short" {
		t.Error("expected short string unchanged")
	}
	if got := truncate("a-very-long-operation-name", 10); got != "a-very-..." {
		t.Errorf("expected 'a-very-...', got '%s'", got)
	}
}
