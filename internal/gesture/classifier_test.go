package gesture

import (
	"sync"
	"testing"
	"time"
)

const (
	hold      = 400 * time.Millisecond
	threshold = 400 * time.Millisecond
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func setup(t *testing.T) (*Classifier, *ManualClock, *recorder) {
	t.Helper()
	clock := NewManualClock()
	rec := &recorder{}
	c := NewClassifier(clock, rec.emit)
	if _, err := c.Add(17, hold, threshold); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	return c, clock, rec
}

func equalKinds(a, b []Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestClassifier(t *testing.T) {
	type step struct {
		advance time.Duration
		held    bool // otherwise released
	}

	tests := []struct {
		name  string
		steps []step
		tail  time.Duration
		want  []Kind
	}{
		{
			name:  "single_click",
			steps: []step{{0, false}},
			tail:  threshold,
			want:  []Kind{Single},
		},
		{
			name:  "single_not_emitted_before_window",
			steps: []step{{0, false}},
			tail:  threshold - time.Millisecond,
			want:  []Kind{},
		},
		{
			name:  "double_click",
			steps: []step{{0, false}, {200 * time.Millisecond, false}},
			tail:  time.Second,
			want:  []Kind{Double},
		},
		{
			name:  "two_spaced_singles",
			steps: []step{{0, false}, {threshold, false}},
			tail:  threshold,
			want:  []Kind{Single, Single},
		},
		{
			name:  "double_then_double",
			steps: []step{{0, false}, {100 * time.Millisecond, false}, {100 * time.Millisecond, false}},
			tail:  time.Second,
			want:  []Kind{Double, Double},
		},
		{
			name:  "hold_then_release_is_not_a_click",
			steps: []step{{0, true}, {0, false}},
			tail:  time.Second,
			want:  []Kind{Long},
		},
		{
			name:  "repeating_hold",
			steps: []step{{0, true}, {hold, true}, {hold, true}, {0, false}},
			tail:  time.Second,
			want:  []Kind{Long, Long, Long},
		},
		{
			name:  "click_after_hold_window",
			steps: []step{{0, true}, {0, false}, {time.Second, false}},
			tail:  threshold,
			want:  []Kind{Long, Single},
		},
		{
			name:  "click_right_after_hold_is_double",
			steps: []step{{0, true}, {0, false}, {100 * time.Millisecond, false}},
			tail:  time.Second,
			want:  []Kind{Long, Double},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, clock, rec := setup(t)
			// Start well past the zero release time.
			clock.Advance(time.Hour)
			for _, s := range tt.steps {
				clock.Advance(s.advance)
				if s.held {
					c.Held(17)
				} else {
					c.Released(17)
				}
			}
			clock.Advance(tt.tail)

			if got := rec.kinds(); !equalKinds(got, tt.want) {
				t.Errorf("gestures = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpacedReleasesNeverDouble(t *testing.T) {
	c, clock, rec := setup(t)
	for i := 0; i < 20; i++ {
		c.Released(17)
		clock.Advance(threshold + time.Duration(i)*time.Millisecond)
	}
	for _, k := range rec.kinds() {
		if k != Single {
			t.Fatalf("got %v, want only singles", rec.kinds())
		}
	}
	if n := len(rec.kinds()); n != 20 {
		t.Errorf("got %d singles, want 20", n)
	}
}

func TestAtMostOneLiveTimer(t *testing.T) {
	c, clock, _ := setup(t)
	b, _ := c.Button(17)

	c.Released(17)
	if !b.Pending() || clock.Live() != 1 {
		t.Fatalf("pending=%v live=%d after first release", b.Pending(), clock.Live())
	}

	// A release outside the double window while a commit is pending must not
	// start a second timer. Simulate by moving lastRelease back.
	b.mu.Lock()
	b.lastRelease = b.lastRelease.Add(-time.Hour)
	b.mu.Unlock()
	c.Released(17)
	if clock.Live() != 1 {
		t.Errorf("live timers = %d, want 1", clock.Live())
	}

	clock.Advance(threshold)
	if b.Pending() || clock.Live() != 0 {
		t.Errorf("pending=%v live=%d after expiry", b.Pending(), clock.Live())
	}
}

func TestStaleCommitIsIgnored(t *testing.T) {
	c, _, rec := setup(t)
	b, _ := c.Button(17)

	c.Released(17)
	b.mu.Lock()
	gen := b.generation
	b.mu.Unlock()

	// Double click cancels the pending commit; a late expiry of the old
	// timer must not produce a single.
	c.Released(17)
	c.commit(b, gen)

	if got := rec.kinds(); !equalKinds(got, []Kind{Double}) {
		t.Errorf("gestures = %v, want [double]", got)
	}
}

func TestEventsCarryIdentity(t *testing.T) {
	c, clock, rec := setup(t)
	c.Released(17)
	clock.Advance(threshold)
	c.Held(17)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 2 {
		t.Fatalf("got %d events", len(rec.events))
	}
	if rec.events[0].ID == "" || rec.events[0].ID == rec.events[1].ID {
		t.Error("events should carry distinct ids")
	}
	if rec.events[0].Pin != 17 {
		t.Errorf("Pin = %d, want 17", rec.events[0].Pin)
	}
}

func TestAddValidation(t *testing.T) {
	c := NewClassifier(NewManualClock(), func(Event) {})
	if _, err := c.Add(1, 0, threshold); err == nil {
		t.Error("zero hold time should be rejected")
	}
	if _, err := c.Add(1, hold, threshold); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := c.Add(1, hold, threshold); err == nil {
		t.Error("duplicate pin should be rejected")
	}
}

func TestUnknownPinIsIgnored(t *testing.T) {
	c, _, rec := setup(t)
	c.Held(99)
	c.Released(99)
	if len(rec.kinds()) != 0 {
		t.Error("unknown pins must not emit gestures")
	}
}

func TestStopCancelsPending(t *testing.T) {
	c, clock, rec := setup(t)
	c.Released(17)
	c.Stop()
	clock.Advance(time.Second)
	if len(rec.kinds()) != 0 {
		t.Errorf("gestures after Stop = %v", rec.kinds())
	}
}
