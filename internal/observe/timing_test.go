package observe

import (
	"testing"
	"time"
)

func TestMeasure(t *testing.T) {
	v, timing := Measure(func() int {
		time.Sleep(2 * time.Millisecond)
		return 42
	})

	if v != 42 {
		t.Errorf("Expected 42, got %d", v)
	}
	if timing.CompletedAt.IsZero() {
		t.Fatal("Expected completed timing")
	}
	if timing.Duration() < 2*time.Millisecond {
		t.Errorf("Expected at least 2ms, got %v", timing.Duration())
	}
	if timing.Milliseconds() < 2 {
		t.Errorf("Expected at least 2 milliseconds, got %f", timing.Milliseconds())
	}
}

func TestDurationNeverNegative(t *testing.T) {
	now := time.Now()
	timing := &Timing{StartedAt: now, CompletedAt: now.Add(-time.Second)}

	if d := timing.Duration(); d != 0 {
		t.Errorf("Expected clamped zero duration, got %v", d)
	}
}

func TestDurationWhileRunning(t *testing.T) {
	timing := NewTiming()
	if timing.Duration() < 0 {
		t.Error("Running timing must report a non-negative duration")
	}
}

func TestDurationMillis(t *testing.T) {
	if got := DurationMillis(1500 * time.Microsecond); got != 1.5 {
		t.Errorf("Expected 1.5, got %f", got)
	}
}
