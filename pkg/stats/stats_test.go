package stats

import (
	"sync"
	"testing"
)

func TestStore(t *testing.T) {
	s := NewStore()

	s.Increment("mergeAbortedAfterConflictsCount")
	s.Increment("mergeAbortedAfterConflictsCount")
	s.Increment("rebaseSuccessAfterConflictsCount")
	s.Increment("")

	if got := s.Get("mergeAbortedAfterConflictsCount"); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := s.Get("unknown"); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}

	names := s.Names()
	if len(names) != 2 || names[0] != "mergeAbortedAfterConflictsCount" {
		t.Errorf("unexpected names: %v", names)
	}

	snap := s.Snapshot()
	snap["mergeAbortedAfterConflictsCount"] = 100
	if s.Get("mergeAbortedAfterConflictsCount") != 2 {
		t.Error("snapshot should be a copy")
	}
}

func TestStore_Concurrent(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Increment("x")
		}()
	}
	wg.Wait()

	if got := s.Get("x"); got != 50 {
		t.Errorf("expected 50, got %d", got)
	}
}
