package observe

import "time"

// Timing records when a delegated run started and ended.
type Timing struct {
	StartedAt   time.Time
	CompletedAt time.Time

	now func() time.Time
}

// NewTiming starts a timing at the current time
func NewTiming() *Timing {
	return newTiming(time.Now)
}

func newTiming(now func() time.Time) *Timing {
	return &Timing{StartedAt: now(), now: now}
}

// Complete records completion time. Only the first call counts.
func (t *Timing) Complete() {
	if t.CompletedAt.IsZero() {
		t.CompletedAt = t.now()
	}
}

// Duration returns execution duration, running time if not yet complete
func (t *Timing) Duration() time.Duration {
	if t.CompletedAt.IsZero() {
		return t.now().Sub(t.StartedAt)
	}
	return t.CompletedAt.Sub(t.StartedAt)
}
