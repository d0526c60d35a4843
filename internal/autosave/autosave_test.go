package autosave

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebounceCoalescesTriggers(t *testing.T) {
	var runs atomic.Int32
	d := New(40*time.Millisecond, func() { runs.Add(1) })

	// Several edits inside the idle window collapse into a single save.
	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(120 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Fatalf("task ran %d times, want 1", got)
	}
}

func TestTriggerAfterFireSchedulesAgain(t *testing.T) {
	var runs atomic.Int32
	d := New(20*time.Millisecond, func() { runs.Add(1) })
	d.Trigger()
	time.Sleep(60 * time.Millisecond)
	d.Trigger()
	time.Sleep(60 * time.Millisecond)
	if got := runs.Load(); got != 2 {
		t.Fatalf("task ran %d times, want 2", got)
	}
}

func TestStopCancelsPending(t *testing.T) {
	var runs atomic.Int32
	d := New(30*time.Millisecond, func() { runs.Add(1) })
	d.Trigger()
	d.Stop()
	time.Sleep(80 * time.Millisecond)
	if got := runs.Load(); got != 0 {
		t.Fatalf("task ran %d times after Stop, want 0", got)
	}
	// Trigger after Stop is a no-op.
	d.Trigger()
	if d.Pending() {
		t.Fatalf("stopped debouncer accepted a new schedule")
	}
}

func TestFlushRunsImmediately(t *testing.T) {
	var runs atomic.Int32
	d := New(10*time.Second, func() { runs.Add(1) })
	d.Trigger()
	if !d.Pending() {
		t.Fatalf("nothing pending after Trigger")
	}
	d.Flush()
	if got := runs.Load(); got != 1 {
		t.Fatalf("task ran %d times after Flush, want 1", got)
	}
	if d.Pending() {
		t.Fatalf("still pending after Flush")
	}
	// Flush with nothing scheduled is a no-op.
	d.Flush()
	if got := runs.Load(); got != 1 {
		t.Fatalf("idle Flush ran the task again: %d", got)
	}
}
