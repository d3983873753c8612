package observe

// Timing only records timestamps. It never interprets them.

import "time"

// Timing records start/end timestamps of one call
type Timing struct {
	StartedAt   time.Time
	CompletedAt time.Time
}

// NewTiming creates timing with current start time
func NewTiming() *Timing {
	return &Timing{
		StartedAt: time.Now(),
	}
}

// Complete records completion time
func (t *Timing) Complete() {
	t.CompletedAt = time.Now()
}

// Duration returns elapsed time, never negative. Timestamps taken with
// time.Now subtract on the monotonic clock.
func (t *Timing) Duration() time.Duration {
	var d time.Duration
	if t.CompletedAt.IsZero() {
		d = time.Since(t.StartedAt)
	} else {
		d = t.CompletedAt.Sub(t.StartedAt)
	}
	if d < 0 {
		return 0
	}
	return d
}

// Milliseconds returns the duration as fractional milliseconds
func (t *Timing) Milliseconds() float64 {
	return DurationMillis(t.Duration())
}

// DurationMillis converts d to fractional milliseconds
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Measure times fn and returns its result with the completed timing
func Measure[T any](fn func() T) (T, *Timing) {
	t := NewTiming()
	v := fn()
	t.Complete()
	return v, t
}
