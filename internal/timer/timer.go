package timer

import "time"

// Timer records split durations between calls to Split.
type Timer struct {
	start      time.Time
	end        *time.Time
	splitStart *time.Time
	splits     []time.Duration
	now        func() time.Time
}

func New() *Timer {
	t := &Timer{now: time.Now}
	t.Start()
	return t
}

func (t *Timer) Start() {
	t.start = t.now()
	t.end = nil
	t.splitStart = nil
	t.splits = nil
}

func (t *Timer) split(ts time.Time) time.Duration {
	if t.splitStart == nil {
		t.splitStart = &t.start
	}
	d := ts.Sub(*t.splitStart)
	t.splits = append(t.splits, d)
	t.splitStart = &ts
	return d
}

// Split closes the current split and returns its length.
func (t *Timer) Split() time.Duration {
	return t.split(t.now())
}

func (t *Timer) Splits() []time.Duration {
	out := make([]time.Duration, len(t.splits))
	copy(out, t.splits)
	return out
}

func (t *Timer) Stop() time.Time {
	if t.end == nil {
		end := t.now()
		t.end = &end
		t.split(end)
	}
	return *t.end
}

func (t *Timer) Duration() time.Duration {
	return t.Stop().Sub(t.start)
}
