package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestAfterRunsOnce(t *testing.T) {
	s := New()
	defer s.Stop()

	var runs atomic.Int32
	if err := s.After("once", 20*time.Millisecond, func() { runs.Add(1) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Start()

	waitFor(t, func() bool { return runs.Load() == 1 })
	time.Sleep(100 * time.Millisecond)
	if runs.Load() != 1 {
		t.Fatalf("expected a single run, got %d", runs.Load())
	}
}

func TestEveryRepeatsAndWaitsForSchedule(t *testing.T) {
	s := New()
	defer s.Stop()

	var runs atomic.Int32
	if err := s.Every("tick", 20*time.Millisecond, func() { runs.Add(1) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Start()

	if runs.Load() != 0 {
		t.Fatalf("job should not run immediately")
	}
	waitFor(t, func() bool { return runs.Load() >= 2 })
}

func TestStopClearsJobs(t *testing.T) {
	s := New()

	var runs atomic.Int32
	if err := s.Every("tick", 20*time.Millisecond, func() { runs.Add(1) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Jobs(); len(got) != 1 || got[0] != "tick" {
		t.Fatalf("unexpected jobs %v", got)
	}
	s.Start()
	s.Stop()

	if got := s.Jobs(); len(got) != 0 {
		t.Fatalf("expected no jobs after stop, got %v", got)
	}
	before := runs.Load()
	time.Sleep(80 * time.Millisecond)
	if runs.Load() != before {
		t.Fatalf("job kept running after stop")
	}

	// Reusable after stop.
	if err := s.Every("tick", 20*time.Millisecond, func() {}); err != nil {
		t.Fatalf("re-adding job after stop: %v", err)
	}
	s.Stop()
}
