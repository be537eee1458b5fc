package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/tierone/deckhand/pkg/changes"
	"github.com/tierone/deckhand/pkg/progress"
	"github.com/tierone/deckhand/pkg/session"
	"github.com/tierone/deckhand/pkg/stats"
)

func TestParseResolutions(t *testing.T) {
	got, err := parseResolutions([]string{"go.sum=theirs", "a/b.txt=Ours"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 resolutions, got %d", len(got))
	}
	if got[0].path != "go.sum" || got[0].resolution != changes.ResolveTheirs {
		t.Errorf("unexpected first resolution: %+v", got[0])
	}
	if got[1].path != "a/b.txt" || got[1].resolution != changes.ResolveOurs {
		t.Errorf("unexpected second resolution: %+v", got[1])
	}

	invalid := []string{"go.sum", "=ours", "go.sum=both"}
	for _, v := range invalid {
		t.Run(v, func(t *testing.T) {
			if _, err := parseResolutions([]string{v}); err == nil {
				t.Errorf("expected error for %q", v)
			}
		})
	}
}

func TestFilesByPath(t *testing.T) {
	wd := changes.NewWorkingDirectory([]changes.WorkingDirectoryFile{
		changes.NewWorkingDirectoryFile("a.txt", changes.StatusModified),
		changes.NewWorkingDirectoryFile("b.txt", changes.StatusNew),
	})

	files := filesByPath(wd, []string{"b.txt", "missing.txt"})
	if len(files) != 1 || files[0].ID() != "New+b.txt" {
		t.Errorf("expected only b.txt, got %v", files)
	}
}

func TestFormatEvent(t *testing.T) {
	total := 10
	tests := []struct {
		name     string
		event    progress.Event
		expected string
	}{
		{
			name: "progress",
			event: progress.Progress{
				Percent: 0.5,
				Details: progress.Info{Title: "Receiving objects", Value: 5, Total: &total},
			},
			expected: "clone.log\t0.5000\tprogress\tReceiving objects\t5/10",
		},
		{
			name: "counter",
			event: progress.Progress{
				Percent: 0.1,
				Details: progress.Info{Title: "remote: Counting objects", Value: 42},
			},
			expected: "clone.log\t0.1000\tprogress\tremote: Counting objects\t42/-",
		},
		{
			name:     "context",
			event:    progress.Context{Percent: 0.25, Text: "remote: Total 10"},
			expected: "clone.log\t0.2500\tcontext\tremote: Total 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatEvent("clone.log", tt.event); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestStreamName(t *testing.T) {
	if streamName("-") != "stdin" {
		t.Error("expected stdin for -")
	}
	if got := streamName("/tmp/logs/clone.log"); got != "clone.log" {
		t.Errorf("expected clone.log, got %s", got)
	}
}

func TestToJSONConflict(t *testing.T) {
	if toJSONConflict(nil) != nil {
		t.Error("expected nil without a conflict")
	}

	rc := &changes.RebaseConflict{
		CurrentTip:        "c1",
		TargetBranch:      "feature",
		ManualResolutions: map[string]changes.ManualResolution{"go.sum": changes.ResolveOurs},
	}
	jc := toJSONConflict(rc)
	if jc == nil || jc.Kind != "rebase" || jc.Branch != "feature" || jc.Tip != "c1" {
		t.Fatalf("unexpected conflict: %+v", jc)
	}
	if jc.Resolutions["go.sum"] != "ours" {
		t.Errorf("expected go.sum resolved as ours, got %v", jc.Resolutions)
	}
}

func TestToJSONStatus_Error(t *testing.T) {
	s := toJSONStatus(session.Result{Repository: "api", Err: errors.New("boom")})
	if s.Error != "boom" {
		t.Errorf("expected error 'boom', got %q", s.Error)
	}
	if s.Files == nil {
		t.Error("expected empty, non-nil file list")
	}
}

func TestPrintRefresh(t *testing.T) {
	state := changes.NewState()
	state.WorkingDirectory = changes.NewWorkingDirectory([]changes.WorkingDirectoryFile{
		changes.NewWorkingDirectoryFile("a.txt", changes.StatusConflicted),
	})
	state.Conflict = &changes.MergeConflict{CurrentBranch: "main", CurrentTip: "a1"}

	var buf bytes.Buffer
	printRefresh(&buf, session.Result{Repository: "api", Version: 3, State: state})
	if !strings.Contains(buf.String(), "api v3: 1 files, merging") {
		t.Errorf("unexpected refresh line: %q", buf.String())
	}

	buf.Reset()
	printRefresh(&buf, session.Result{Repository: "api", Version: 4, State: changes.NewState(), Signal: changes.SignalMergeSucceeded})
	if !strings.Contains(buf.String(), "api v4: 0 files, clean, mergeSucceeded") {
		t.Errorf("unexpected refresh line: %q", buf.String())
	}
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, stats.NewStore())
	if buf.Len() != 0 {
		t.Errorf("expected no output without counters, got %q", buf.String())
	}

	st := stats.NewStore()
	st.Increment("rebaseAbortedAfterConflictsCount")
	st.Increment("mergeSuccessAfterConflictsCount")
	st.Increment("mergeSuccessAfterConflictsCount")
	printStats(&buf, st)

	out := buf.String()
	merge := strings.Index(out, "mergeSuccessAfterConflictsCount")
	rebase := strings.Index(out, "rebaseAbortedAfterConflictsCount")
	if merge < 0 || rebase < 0 || merge > rebase {
		t.Errorf("expected sorted counters, got:\n%s", out)
	}
	if !strings.Contains(out, "2") {
		t.Errorf("expected merge count 2, got:\n%s", out)
	}
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	if !confirm(strings.NewReader("yes\n"), &out, "Remove?") {
		t.Error("expected yes to confirm")
	}
	if confirm(strings.NewReader("n\n"), &out, "Remove?") {
		t.Error("expected n to decline")
	}
	if confirm(strings.NewReader(""), &out, "Remove?") {
		t.Error("expected EOF to decline")
	}
}
