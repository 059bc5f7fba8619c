package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestManualSchedulerEvery(t *testing.T) {
	s := NewManualScheduler()

	var runs int
	job := s.Every(30*time.Second, func() { runs++ })

	s.Advance(29 * time.Second)
	if runs != 0 {
		t.Fatalf("runs = %d before first interval, want 0", runs)
	}

	s.Advance(time.Second)
	if runs != 1 {
		t.Fatalf("runs = %d at 30s, want 1", runs)
	}

	s.Advance(90 * time.Second)
	if runs != 4 {
		t.Fatalf("runs = %d at 120s, want 4", runs)
	}

	job.Stop()
	job.Stop()
	s.Advance(time.Hour)
	if runs != 4 {
		t.Fatalf("runs = %d after stop, want 4", runs)
	}
	if s.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", s.Pending())
	}
}

func TestManualSchedulerAfterOrdering(t *testing.T) {
	s := NewManualScheduler()

	var order []string
	s.After(5*time.Second, func() { order = append(order, "highlight") })
	s.After(3*time.Second, func() { order = append(order, "error") })
	cancelled := s.After(1*time.Second, func() { order = append(order, "cancelled") })
	cancelled.Stop()

	s.Advance(10 * time.Second)

	if len(order) != 2 || order[0] != "error" || order[1] != "highlight" {
		t.Fatalf("order = %v, want [error highlight]", order)
	}
}

func TestManualSchedulerTaskSchedulesTask(t *testing.T) {
	s := NewManualScheduler()

	fired := false
	s.After(time.Second, func() {
		s.After(time.Second, func() { fired = true })
	})

	s.Advance(2 * time.Second)
	if !fired {
		t.Fatalf("nested task due within the advance window did not fire")
	}
}

func TestTickerSchedulerStops(t *testing.T) {
	s := NewTickerScheduler()

	var runs atomic.Int32
	job := s.Every(5*time.Millisecond, func() { runs.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	job.Stop()
	job.Stop()

	if runs.Load() < 2 {
		t.Fatalf("runs = %d, want at least 2", runs.Load())
	}

	var after atomic.Bool
	timer := s.After(time.Hour, func() { after.Store(true) })
	timer.Stop()
	if after.Load() {
		t.Fatalf("stopped After task ran")
	}
}
